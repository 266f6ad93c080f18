package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/credential"
)

// SettingsPatch is a partial settings edit from the host. Nil fields are
// left alone. Secrets arrive in plain text and are hashed before storage;
// an empty secret clears it.
type SettingsPatch struct {
	Sport           *string        `json:"sport,omitempty"`
	ActiveUnitCount *int           `json:"active_unit_count,omitempty"`
	PickRange       *int           `json:"pick_range,omitempty"`
	JoinSecret      *string        `json:"join_secret,omitempty"`
	ElevatedSecret  *string        `json:"elevated_guest_secret,omitempty"`
	Settings        *club.Settings `json:"settings,omitempty"`
}

// ResetSession clears the queue, the units and the match history. The
// roster, secrets, saved queue and settings survive.
func ResetSession(state club.Club, now time.Time) Outcome {
	c := state.Clone()
	c.WaitingQueue = []club.QueueEntry{}
	c.UnitOccupants = map[string][]club.QueueEntry{}
	c.MatchHistory = []club.MatchRecord{}
	return applied(c, now, Outcome{Audit: []string{"Session reset by host"}, ResetIdle: true})
}

// Wipe is ResetSession plus the roster, the saved queue and both secrets.
func Wipe(state club.Club, now time.Time) Outcome {
	c := state.Clone()
	c.WaitingQueue = []club.QueueEntry{}
	c.UnitOccupants = map[string][]club.QueueEntry{}
	c.MatchHistory = []club.MatchRecord{}
	c.Roster = map[string][]club.RosterPlayer{}
	c.SavedQueue = []club.QueueEntry{}
	c.JoinSecret = ""
	c.ElevatedGuestSecret = ""
	return applied(c, now, Outcome{Audit: []string{"All session data wiped by host"}, ResetIdle: true})
}

// RestoreSavedQueue brings back the queue snapshot taken when the last
// match finished. It only runs on an idle session.
func RestoreSavedQueue(state club.Club, now time.Time) Outcome {
	if len(state.WaitingQueue) > 0 || len(state.UnitOccupants) > 0 {
		return reject("session is not idle")
	}
	if len(state.SavedQueue) == 0 {
		return reject("no saved queue")
	}
	c := state.Clone()
	seen := make(map[string]bool, len(c.SavedQueue))
	for _, e := range c.SavedQueue {
		if e.Name == "" || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		e.IsPaused = false
		e.IsElevatedGuest = false
		c.WaitingQueue = append(c.WaitingQueue, e)
	}
	line := fmt.Sprintf("Restored %d players from the last session", len(c.WaitingQueue))
	return applied(c, now, Outcome{Audit: []string{line}, ResetIdle: true})
}

// UpdateSettings applies a host settings edit.
func UpdateSettings(state club.Club, patch SettingsPatch, now time.Time) Outcome {
	c := state.Clone()
	var audit []string

	if patch.Sport != nil && *patch.Sport != c.Sport {
		sport, ok := club.LookupSport(*patch.Sport)
		if !ok {
			return reject("unknown sport %q", *patch.Sport)
		}
		if len(c.UnitOccupants) > 0 {
			return reject("cannot change sport while matches are running")
		}
		c.Sport = sport.Key
		if c.PickRange < sport.PlayersPerUnit {
			c.PickRange = sport.PlayersPerUnit
		}
		audit = append(audit, fmt.Sprintf("Sport changed to %s", sport.DisplayName))
	}
	if patch.ActiveUnitCount != nil {
		n := *patch.ActiveUnitCount
		if n < 1 {
			return reject("active unit count must be at least 1")
		}
		for k := range c.UnitOccupants {
			var unit int
			if _, err := fmt.Sscan(k, &unit); err == nil && unit >= n {
				return reject("%s is still in use", unitLabel(&c, unit))
			}
		}
		if n != c.ActiveUnitCount {
			c.ActiveUnitCount = n
			audit = append(audit, fmt.Sprintf("%d %ss in use", n, c.SportOf().UnitLabel))
		}
	}
	if patch.PickRange != nil {
		if *patch.PickRange < c.SportOf().PlayersPerUnit {
			return reject("pick range %d is below %d", *patch.PickRange, c.SportOf().PlayersPerUnit)
		}
		c.PickRange = *patch.PickRange
	}
	if patch.JoinSecret != nil {
		hashed, err := hashOrClear(*patch.JoinSecret)
		if err != nil {
			return reject("hash join secret: %v", err)
		}
		c.JoinSecret = hashed
		audit = append(audit, "Join code updated")
	}
	if patch.ElevatedSecret != nil {
		hashed, err := hashOrClear(*patch.ElevatedSecret)
		if err != nil {
			return reject("hash elevated secret: %v", err)
		}
		c.ElevatedGuestSecret = hashed
		audit = append(audit, "Queue management code updated")
	}
	if patch.Settings != nil {
		s := *patch.Settings
		if s.RepeatIntervalSeconds <= 0 {
			s.RepeatIntervalSeconds = c.Settings.RepeatIntervalSeconds
		}
		if s.CountdownLimitSeconds <= 0 {
			s.CountdownLimitSeconds = c.Settings.CountdownLimitSeconds
		}
		c.Settings = s
	}
	if len(audit) == 0 {
		audit = []string{"Settings updated"}
	}
	return applied(c, now, Outcome{Audit: audit})
}

func hashOrClear(secret string) (string, error) {
	if secret == "" {
		return "", nil
	}
	return credential.Hash(secret)
}

// EvictStale removes the named players from the waiting queue. Players on
// a unit or not queued are skipped.
func EvictStale(state club.Club, names []string, now time.Time) Outcome {
	c := state.Clone()
	before := topName(&c)
	var audit []string
	for _, name := range names {
		i := c.QueueIndex(name)
		if i < 0 {
			continue
		}
		c.WaitingQueue = removeAt(c.WaitingQueue, i)
		audit = append(audit, fmt.Sprintf("%s removed after losing connection", name))
	}
	if len(audit) == 0 {
		return reject("nobody to evict")
	}
	return applied(c, now, Outcome{Audit: audit, ResetIdle: topName(&c) != before})
}

// RotateTop moves the first non-paused player behind the next non-paused
// player. It needs at least minRotateQueue active entries.
func RotateTop(state club.Club, now time.Time) Outcome {
	if state.ActiveCount() < minRotateQueue {
		return reject("queue too short to rotate")
	}
	c := state.Clone()
	first := c.FirstActive()
	second := first + 1 + slices.IndexFunc(c.WaitingQueue[first+1:], func(e club.QueueEntry) bool { return !e.IsPaused })
	c.WaitingQueue[first], c.WaitingQueue[second] = c.WaitingQueue[second], c.WaitingQueue[first]

	skipped, next := c.WaitingQueue[second].Name, c.WaitingQueue[first].Name
	return applied(c, now, Outcome{
		Audit:        []string{fmt.Sprintf("%s timed out, %s moves up", skipped, next)},
		Announcement: fmt.Sprintf("%s, you're up", next),
		ResetIdle:    true,
	})
}

// minRotateQueue avoids cycling a tiny queue.
const minRotateQueue = 4

func applied(c club.Club, now time.Time, out Outcome) Outcome {
	c.UpdatedAt = now
	out.Kind = Applied
	out.State = c
	return out
}
