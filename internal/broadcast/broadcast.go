package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/pubsub"
)

// Broadcaster publishes a persisted club document to every listener.
type Broadcaster interface {
	Broadcast(c club.Club)
}

const publishTimeout = 10 * time.Second

// Fanout publishes to the local hub and, when configured, to Pub/Sub.
type Fanout struct {
	hub    *Hub
	pubsub pubsub.PubSubClient
	wg     sync.WaitGroup
}

var _ Broadcaster = (*Fanout)(nil)

// New returns a Fanout. ps may be nil to disable the Pub/Sub mirror.
func New(hub *Hub, ps pubsub.PubSubClient) *Fanout {
	return &Fanout{hub: hub, pubsub: ps}
}

func (f *Fanout) Broadcast(c club.Club) {
	f.hub.Publish(c)
	if f.pubsub == nil {
		return
	}
	msg := pubsub.StateChanged{ClubID: c.ID, Version: c.Version, Club: c.Clone()}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := f.pubsub.SendMessage(ctx, pubsub.EventClubStateChanged, msg); err != nil {
			log.Warn("Failed to mirror club state", "clubID", msg.ClubID, "version", msg.Version, "error", err)
		}
	}()
}

// Flush waits for in-flight Pub/Sub publishes.
func (f *Fanout) Flush() {
	f.wg.Wait()
}
