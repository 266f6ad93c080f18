package processor

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mauv0809/courtside/internal/audit"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/presence"
	"github.com/mauv0809/courtside/internal/pubsub"
)

// Deps are the collaborators a Processor needs. PubSub may be nil.
type Deps struct {
	Store         Store
	Inbox         Inbox
	Broadcaster   Broadcaster
	Notifier      Notifier
	Metrics       metrics.Metrics
	Counters      metrics.MetricsStore
	Audit         *audit.Log
	Presence      *presence.Tracker
	PubSub        pubsub.PubSubClient
	Clock         clockwork.Clock
	HostOwnerID   string
	DrainInterval time.Duration
}

// Processor is the single entry point for every change to a club document.
// Each club has one session handle; all mutations of that club run one at
// a time under its lock.
type Processor struct {
	store       Store
	inbox       Inbox
	out         Broadcaster
	notifier    Notifier
	metrics     metrics.Metrics
	counters    metrics.MetricsStore
	audit       *audit.Log
	presence    *presence.Tracker
	pubsub      pubsub.PubSubClient
	clock       clockwork.Clock
	hostOwnerID string
	interval    time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	idle     IdleResetter

	work   chan string
	notify sync.WaitGroup
}

// session holds the last persisted document of one club.
type session struct {
	mu    sync.Mutex
	state club.Club
	// drain serializes inbox draining so an entry is never applied twice.
	drain sync.Mutex
}
