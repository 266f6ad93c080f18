// Package audit keeps the host-visible diagnostic log of each club as a
// capped ring buffer.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

// Capacity is the number of lines kept per club.
const Capacity = 100

// Line is one audit record.
type Line struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Log is a per-club ring buffer of audit lines.
type Log struct {
	clock clockwork.Clock
	mu    sync.RWMutex
	rings map[string]*ring
}

type ring struct {
	lines [Capacity]Line
	next  int
	full  bool
}

func New(clock clockwork.Clock) *Log {
	return &Log{clock: clock, rings: make(map[string]*ring)}
}

// Record appends lines to the club's log, evicting the oldest beyond Capacity.
func (l *Log) Record(clubID string, lines ...string) {
	if len(lines) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rings[clubID]
	if !ok {
		r = &ring{}
		l.rings[clubID] = r
	}
	now := l.clock.Now()
	for _, text := range lines {
		log.Info("Audit", "clubID", clubID, "line", text)
		r.lines[r.next] = Line{At: now, Text: text}
		r.next = (r.next + 1) % Capacity
		if r.next == 0 {
			r.full = true
		}
	}
}

// Recordf is Record for a single formatted line.
func (l *Log) Recordf(clubID, format string, args ...any) {
	l.Record(clubID, fmt.Sprintf(format, args...))
}

// Lines returns the club's log, oldest first.
func (l *Log) Lines(clubID string) []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rings[clubID]
	if !ok {
		return []Line{}
	}
	if !r.full {
		out := make([]Line, r.next)
		copy(out, r.lines[:r.next])
		return out
	}
	out := make([]Line, 0, Capacity)
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[:r.next]...)
}

// Clear drops the club's log.
func (l *Log) Clear(clubID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rings, clubID)
}
