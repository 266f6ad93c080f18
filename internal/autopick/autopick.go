// Package autopick chooses the next group to play from the waiting queue.
package autopick

import (
	"errors"
	"slices"

	"github.com/mauv0809/courtside/internal/club"
)

var ErrNotEnoughPlayers = errors.New("not enough eligible players")

// swapSlot is the pick replaced when a selection repeats the last match.
const swapSlot = 3

// Select returns ascending waiting-queue indices of the next group for one
// unit. The caller highlights them and commits through start_match.
func Select(c club.Club) ([]int, error) {
	n := c.SportOf().PlayersPerUnit

	var pool []int
	for i, e := range c.WaitingQueue {
		if i >= c.PickRange {
			break
		}
		if !e.IsPaused {
			pool = append(pool, i)
		}
	}
	if len(pool) < n {
		return nil, ErrNotEnoughPlayers
	}

	picks := slices.Clone(pool[:n])
	if c.Settings.GenderBalance && n%2 == 0 {
		if balanced, ok := balance(c.WaitingQueue, pool, n/2); ok {
			picks = balanced
		}
	}
	if c.Settings.AvoidRepeats && len(c.MatchHistory) > 0 {
		picks = avoidRepeat(c.WaitingQueue, pool, picks, c.MatchHistory[len(c.MatchHistory)-1])
	}
	slices.Sort(picks)
	return picks, nil
}

// balance takes half men and half women from pool in queue order.
func balance(q []club.QueueEntry, pool []int, half int) ([]int, bool) {
	var men, women []int
	for _, i := range pool {
		switch q[i].Gender {
		case club.GenderMale:
			if len(men) < half {
				men = append(men, i)
			}
		case club.GenderFemale:
			if len(women) < half {
				women = append(women, i)
			}
		}
	}
	if len(men) < half || len(women) < half {
		return nil, false
	}
	return append(men, women...), true
}

// avoidRepeat swaps one pick for a fresh player when two or more picks
// shared the most recent match. Best effort: a single swap, no search.
func avoidRepeat(q []club.QueueEntry, pool, picks []int, last club.MatchRecord) []int {
	played := make(map[string]bool, len(last.TeamA)+len(last.TeamB))
	for _, name := range last.TeamA {
		played[name] = true
	}
	for _, name := range last.TeamB {
		played[name] = true
	}

	repeats := 0
	for _, i := range picks {
		if played[q[i].Name] {
			repeats++
		}
	}
	if repeats < 2 {
		return picks
	}

	slot := swapSlot
	if slot >= len(picks) {
		slot = len(picks) - 1
	}
	for _, i := range pool {
		if !played[q[i].Name] && !slices.Contains(picks, i) {
			picks[slot] = i
			break
		}
	}
	return picks
}
