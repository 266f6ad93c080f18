package processor

import (
	"errors"

	"github.com/mauv0809/courtside/internal/broadcast"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/inbox"
	"github.com/mauv0809/courtside/internal/notifier"
)

var ErrNotHost = errors.New("caller does not own this club")

// Store defines the database operations required by the processor.
type Store interface {
	club.ClubStore
}

// Inbox defines the request queue operations required by the processor.
type Inbox interface {
	inbox.Inbox
}

// Notifier defines the notification operations required by the processor.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}

// Broadcaster receives every document the processor persists.
type Broadcaster interface {
	broadcast.Broadcaster
}

// IdleResetter is told when a club's top-of-queue timer must restart.
type IdleResetter interface {
	ResetIdle(clubID string)
}
