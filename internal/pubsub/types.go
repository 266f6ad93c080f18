package pubsub

import (
	"cloud.google.com/go/pubsub"
	"github.com/mauv0809/courtside/internal/club"
)

type client struct {
	client   *pubsub.Client
	teardown func() error
}

// EventType represents the type of event/message sent via pubsub. It
// doubles as the topic name.
type EventType string

const (
	EventClubStateChanged EventType = "club-state-changed"
	EventRequestSubmitted EventType = "club-request-submitted"
)

// StateChanged carries a freshly persisted club document to mirrors.
type StateChanged struct {
	ClubID  string    `msgpack:"club_id"`
	Version int64     `msgpack:"version"`
	Club    club.Club `msgpack:"club"`
}

// RequestSubmitted tells the host that a club has new inbox entries.
type RequestSubmitted struct {
	ClubID    string `msgpack:"club_id"`
	RequestID string `msgpack:"request_id"`
}
