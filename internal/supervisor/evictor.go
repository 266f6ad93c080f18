package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/presence"
)

// Evictor removes waiting players whose heartbeat has gone quiet.
type Evictor struct {
	proc       Processor
	presence   *presence.Tracker
	clock      clockwork.Clock
	interval   time.Duration
	staleAfter time.Duration
}

func NewEvictor(proc Processor, tracker *presence.Tracker, clock clockwork.Clock, interval, staleAfter time.Duration) *Evictor {
	return &Evictor{
		proc:       proc,
		presence:   tracker,
		clock:      clock,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Sweep evicts stale players from every club with presence records and
// returns how many were removed.
func (e *Evictor) Sweep(ctx context.Context) int {
	total := 0
	for _, clubID := range e.presence.Clubs() {
		stale := e.presence.Stale(clubID, e.staleAfter)
		if len(stale) == 0 {
			continue
		}
		c, err := e.proc.Snapshot(ctx, clubID)
		if errors.Is(err, club.ErrClubNotFound) {
			log.Warn("Dropping presence for unknown club", "clubID", clubID)
			e.presence.ForgetClub(clubID)
			continue
		}
		if err != nil {
			log.Error("Failed to load club for eviction", "clubID", clubID, "error", err)
			continue
		}
		var queued, absent []string
		for _, name := range stale {
			if c.QueueIndex(name) >= 0 {
				queued = append(queued, name)
				continue
			}
			// Players on a unit are left alone until they rejoin the queue.
			if _, playing := c.UnitOf(name); !playing {
				absent = append(absent, name)
			}
		}
		if len(absent) > 0 {
			e.presence.Forget(clubID, absent...)
		}
		if len(queued) == 0 {
			continue
		}
		n, err := e.proc.EvictStale(ctx, clubID, queued)
		if err != nil {
			log.Error("Failed to evict stale players", "clubID", clubID, "error", err)
			continue
		}
		total += n
	}
	return total
}

// Run sweeps every interval until ctx is cancelled.
func (e *Evictor) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()
	log.Info("Evictor started", "interval", e.interval, "staleAfter", e.staleAfter)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if n := e.Sweep(ctx); n > 0 {
				log.Info("Evicted stale players", "count", n)
			}
		}
	}
}
