package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/mauv0809/courtside/internal/club"
)

// minRotateQueue matches the engine's rotation floor.
const minRotateQueue = 4

// TopTimer watches who holds the top of each club's queue. It nudges them
// with repeat announcements and, when the countdown runs out, lets the next
// player jump ahead.
type TopTimer struct {
	proc  Processor
	clock clockwork.Clock
	tick  time.Duration

	mu   sync.Mutex
	tops map[string]*top
}

type top struct {
	name      string
	since     time.Time
	announced time.Time
}

func NewTopTimer(proc Processor, clock clockwork.Clock, tick time.Duration) *TopTimer {
	return &TopTimer{
		proc:  proc,
		clock: clock,
		tick:  tick,
		tops:  make(map[string]*top),
	}
}

// ResetIdle restarts the club's timer. The processor calls it whenever a
// change may have moved the top of the queue.
func (t *TopTimer) ResetIdle(clubID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tops, clubID)
}

// Elapsed reports how long the current top player has waited.
func (t *TopTimer) Elapsed(clubID string) (string, time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.tops[clubID]
	if !ok {
		return "", 0, false
	}
	return st.name, t.clock.Since(st.since), true
}

// Check runs one tick over every active club.
func (t *TopTimer) Check(ctx context.Context) {
	for _, clubID := range t.proc.ActiveClubs() {
		c, err := t.proc.Snapshot(ctx, clubID)
		if err != nil {
			log.Warn("Top timer could not load club", "clubID", clubID, "error", err)
			continue
		}
		t.check(ctx, c)
	}
}

func (t *TopTimer) check(ctx context.Context, c club.Club) {
	now := t.clock.Now()
	i := c.FirstActive()
	if i < 0 {
		t.ResetIdle(c.ID)
		return
	}
	name := c.WaitingQueue[i].Name

	t.mu.Lock()
	st, ok := t.tops[c.ID]
	if !ok || st.name != name {
		t.tops[c.ID] = &top{name: name, since: now, announced: now}
		t.mu.Unlock()
		return
	}
	elapsed := now.Sub(st.since)
	limit := time.Duration(c.Settings.CountdownLimitSeconds) * time.Second
	rotate := c.Settings.Countdown && elapsed > limit && c.ActiveCount() >= minRotateQueue

	announce := false
	interval := time.Duration(c.Settings.RepeatIntervalSeconds) * time.Second
	if !rotate && c.Settings.RepeatAnnouncement && now.Sub(st.announced) >= interval {
		st.announced = now
		announce = true
	}
	t.mu.Unlock()

	if rotate {
		rotated, err := t.proc.RotateTop(ctx, c.ID)
		if err != nil {
			log.Error("Failed to rotate top of queue", "clubID", c.ID, "error", err)
			return
		}
		if rotated {
			log.Info("Rotated top of queue", "clubID", c.ID, "skipped", name, "waited", elapsed)
		}
		return
	}
	if announce {
		t.proc.Announce(ctx, c.ID, fmt.Sprintf("%s, you're up", name))
	}
}

// Run ticks until ctx is cancelled.
func (t *TopTimer) Run(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.tick)
	defer ticker.Stop()
	log.Info("Top timer started", "tick", t.tick)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			t.Check(ctx)
		}
	}
}
