package processor

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/engine"
	"github.com/mauv0809/courtside/internal/notifier"
)

// Host-only session transitions. They share Mutate with guest requests so
// there is exactly one write path per club.

const (
	actionReset    = "reset_session"
	actionWipe     = "wipe"
	actionRestore  = "restore_saved_queue"
	actionSettings = "update_settings"
	actionEvict    = "evict_stale"
	actionRotate   = "rotate_top"
)

// ResetSession clears the queue, the units and the history. The finished
// session's leaderboard is posted first.
func (p *Processor) ResetSession(ctx context.Context, clubID string) (engine.Outcome, error) {
	var before club.Club
	out, err := p.Mutate(ctx, clubID, actionReset, func(c club.Club) engine.Outcome {
		before = c
		return engine.ResetSession(c, p.clock.Now())
	})
	if err == nil && out.Kind == engine.Applied {
		p.presence.ForgetClub(clubID)
		p.sendLeaderboard(before, notifier.IsDryRun(ctx))
	}
	return out, err
}

// Wipe resets the session and also forgets the roster and secrets.
func (p *Processor) Wipe(ctx context.Context, clubID string) (engine.Outcome, error) {
	out, err := p.Mutate(ctx, clubID, actionWipe, func(c club.Club) engine.Outcome {
		return engine.Wipe(c, p.clock.Now())
	})
	if err == nil && out.Kind == engine.Applied {
		p.presence.ForgetClub(clubID)
	}
	return out, err
}

// RestoreSavedQueue brings back the queue snapshot of the last finished match.
func (p *Processor) RestoreSavedQueue(ctx context.Context, clubID string) (engine.Outcome, error) {
	return p.Mutate(ctx, clubID, actionRestore, func(c club.Club) engine.Outcome {
		return engine.RestoreSavedQueue(c, p.clock.Now())
	})
}

// UpdateSettings applies a host settings edit.
func (p *Processor) UpdateSettings(ctx context.Context, clubID string, patch engine.SettingsPatch) (engine.Outcome, error) {
	return p.Mutate(ctx, clubID, actionSettings, func(c club.Club) engine.Outcome {
		return engine.UpdateSettings(c, patch, p.clock.Now())
	})
}

// EvictStale removes the named players from the queue and forgets their
// heartbeat records. Names on a unit stay tracked.
func (p *Processor) EvictStale(ctx context.Context, clubID string, names []string) (int, error) {
	var evicted []string
	out, err := p.Mutate(ctx, clubID, actionEvict, func(c club.Club) engine.Outcome {
		evicted = evicted[:0]
		for _, n := range names {
			if c.QueueIndex(n) >= 0 {
				evicted = append(evicted, n)
			}
		}
		return engine.EvictStale(c, names, p.clock.Now())
	})
	if err != nil {
		return 0, err
	}
	if out.Kind != engine.Applied {
		return 0, nil
	}
	p.presence.Forget(clubID, evicted...)
	p.metrics.AddEvictions(len(evicted))
	log.Info("Evicted stale players", "clubID", clubID, "names", evicted)
	return len(evicted), nil
}

// RotateTop moves a timed-out top player down one place.
func (p *Processor) RotateTop(ctx context.Context, clubID string) (bool, error) {
	out, err := p.Mutate(ctx, clubID, actionRotate, func(c club.Club) engine.Outcome {
		return engine.RotateTop(c, p.clock.Now())
	})
	if err != nil {
		return false, err
	}
	if out.Kind == engine.Applied {
		p.metrics.IncRotations()
		return true, nil
	}
	return false, nil
}

// DeleteClub removes a club and everything queued for it.
func (p *Processor) DeleteClub(ctx context.Context, clubID string) error {
	if err := p.store.Delete(ctx, clubID); err != nil && !errors.Is(err, club.ErrClubNotFound) {
		return err
	}
	p.evict(clubID)
	p.presence.ForgetClub(clubID)
	p.audit.Clear(clubID)
	return nil
}

func (p *Processor) sendLeaderboard(c club.Club, dryRun bool) {
	sport := c.SportOf()
	players := c.Roster[sport.Key]
	p.notify.Add(1)
	go func() {
		defer p.notify.Done()
		if err := p.notifier.SendLeaderboard(c.ID, sport.DisplayName, players, dryRun); err != nil {
			log.Warn("Leaderboard notification failed", "clubID", c.ID, "error", err)
		}
	}()
}
