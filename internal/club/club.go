package club

import (
	"slices"
	"time"
)

// NewClub returns an empty session document with sane defaults.
func NewClub(id, hostOwnerID, sport string, now time.Time) Club {
	if _, ok := LookupSport(sport); !ok {
		sport = DefaultSport
	}
	c := Club{
		ID:              id,
		HostOwnerID:     hostOwnerID,
		Sport:           sport,
		ActiveUnitCount: 1,
		WaitingQueue:    []QueueEntry{},
		UnitOccupants:   map[string][]QueueEntry{},
		Roster:          map[string][]RosterPlayer{},
		MatchHistory:    []MatchRecord{},
		SavedQueue:      []QueueEntry{},
		Settings: Settings{
			RepeatIntervalSeconds: 60,
			CountdownLimitSeconds: 180,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.PickRange = c.SportOf().PlayersPerUnit * 2
	return c
}

// Clone returns a deep copy so callers can mutate freely.
func (c Club) Clone() Club {
	out := c
	out.WaitingQueue = slices.Clone(c.WaitingQueue)
	out.SavedQueue = slices.Clone(c.SavedQueue)
	out.UnitOccupants = make(map[string][]QueueEntry, len(c.UnitOccupants))
	for k, v := range c.UnitOccupants {
		out.UnitOccupants[k] = slices.Clone(v)
	}
	out.Roster = make(map[string][]RosterPlayer, len(c.Roster))
	for k, v := range c.Roster {
		out.Roster[k] = slices.Clone(v)
	}
	out.MatchHistory = make([]MatchRecord, len(c.MatchHistory))
	for i, m := range c.MatchHistory {
		m.TeamA = slices.Clone(m.TeamA)
		m.TeamB = slices.Clone(m.TeamB)
		m.Winners = slices.Clone(m.Winners)
		out.MatchHistory[i] = m
	}
	return out
}

// QueueIndex returns the position of name in the waiting queue, or -1.
func (c *Club) QueueIndex(name string) int {
	return slices.IndexFunc(c.WaitingQueue, func(e QueueEntry) bool { return e.Name == name })
}

// FirstActive returns the index of the first non-paused queue entry, or -1.
func (c *Club) FirstActive() int {
	return slices.IndexFunc(c.WaitingQueue, func(e QueueEntry) bool { return !e.IsPaused })
}

// ActiveCount is the number of non-paused queue entries.
func (c *Club) ActiveCount() int {
	n := 0
	for _, e := range c.WaitingQueue {
		if !e.IsPaused {
			n++
		}
	}
	return n
}

// UnitOf returns the unit key name is playing on, if any.
func (c *Club) UnitOf(name string) (string, bool) {
	for k, occupants := range c.UnitOccupants {
		for _, e := range occupants {
			if e.Name == name {
				return k, true
			}
		}
	}
	return "", false
}

// IsElevated reports whether name holds elevated-guest status in the queue.
func (c *Club) IsElevated(name string) bool {
	i := c.QueueIndex(name)
	return i >= 0 && c.WaitingQueue[i].IsElevatedGuest
}

// RosterIndex returns the index of name in the roster of the club's sport, or -1.
func (c *Club) RosterIndex(name string) int {
	return slices.IndexFunc(c.Roster[c.SportOf().Key], func(p RosterPlayer) bool { return p.Name == name })
}
