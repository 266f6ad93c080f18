package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/credential"
)

func batchJoin(c *club.Club, req Request, p BatchJoin) Outcome {
	trusted := isTrusted(c, req)
	for _, pl := range p.Players {
		if pl.Name == "" {
			return reject("blank name in batch")
		}
		if !trusted && pl.Name != req.Requester {
			return reject("untrusted %s tried to add %s", req.Requester, pl.Name)
		}
	}
	if !trusted && c.JoinSecret != "" && !credential.Verify(c.JoinSecret, p.Secret) {
		return rejectWithAudit(fmt.Sprintf("%s tried to join with a wrong join code", req.Requester))
	}

	before := topName(c)
	sport := c.SportOf().Key
	seen := make(map[string]bool, len(p.Players))
	var joined []string
	changed := false
	for _, pl := range p.Players {
		if seen[pl.Name] {
			continue
		}
		seen[pl.Name] = true

		if c.RosterIndex(pl.Name) < 0 {
			c.Roster[sport] = append(c.Roster[sport], club.RosterPlayer{Name: pl.Name, Gender: pl.Gender})
			changed = true
		}
		if c.QueueIndex(pl.Name) >= 0 {
			continue
		}
		if _, playing := c.UnitOf(pl.Name); playing {
			continue
		}
		c.WaitingQueue = append(c.WaitingQueue, club.QueueEntry{Name: pl.Name, Gender: pl.Gender})
		joined = append(joined, pl.Name)
		changed = true
	}
	if !changed {
		return reject("everyone in the batch is already present")
	}

	audit := make([]string, 0, len(joined))
	for _, name := range joined {
		audit = append(audit, fmt.Sprintf("%s joined the queue", name))
	}
	return Outcome{Kind: Applied, Audit: audit, ResetIdle: topName(c) != before}
}

func togglePause(c *club.Club, req Request, p TogglePause) Outcome {
	if p.Name == "" {
		return reject("blank name")
	}
	if !mayTarget(c, req, p.Name) {
		return reject("untrusted %s tried to pause %s", req.Requester, p.Name)
	}
	i := c.QueueIndex(p.Name)
	if i < 0 {
		return reject("%s is not waiting", p.Name)
	}
	before := topName(c)
	c.WaitingQueue[i].IsPaused = !c.WaitingQueue[i].IsPaused

	verb := "resumed"
	if c.WaitingQueue[i].IsPaused {
		verb = "paused"
	}
	return Outcome{
		Kind:      Applied,
		Audit:     []string{fmt.Sprintf("%s %s", p.Name, verb)},
		ResetIdle: topName(c) != before,
	}
}

func leave(c *club.Club, req Request, p Leave) Outcome {
	if p.Name == "" {
		return reject("blank name")
	}
	if !mayTarget(c, req, p.Name) {
		return reject("untrusted %s tried to remove %s", req.Requester, p.Name)
	}
	i := c.QueueIndex(p.Name)
	if i < 0 {
		return reject("%s is not waiting", p.Name)
	}
	before := topName(c)
	c.WaitingQueue = removeAt(c.WaitingQueue, i)
	return Outcome{
		Kind:      Applied,
		Audit:     []string{fmt.Sprintf("%s left the queue", p.Name)},
		ResetIdle: topName(c) != before,
	}
}

func substitute(c *club.Club, req Request, p Substitute) Outcome {
	if !isTrusted(c, req) {
		return reject("untrusted %s tried to substitute", req.Requester)
	}
	if p.In == "" || p.Out == "" || p.In == p.Out {
		return reject("invalid substitution %q for %q", p.In, p.Out)
	}
	key := club.UnitKey(p.Unit)
	occupants, busy := c.UnitOccupants[key]
	if !busy {
		return reject("%s is not in use", unitLabel(c, p.Unit))
	}
	in := c.QueueIndex(p.In)
	if in < 0 {
		return reject("%s is not waiting", p.In)
	}
	out := slices.IndexFunc(occupants, func(e club.QueueEntry) bool { return e.Name == p.Out })
	if out < 0 {
		return reject("%s is not on %s", p.Out, unitLabel(c, p.Unit))
	}

	incoming := c.WaitingQueue[in]
	incoming.IsPaused = false
	outgoing := occupants[out]
	outgoing.IsPaused = false

	occupants[out] = incoming
	c.UnitOccupants[key] = occupants
	c.WaitingQueue = append(removeAt(c.WaitingQueue, in), outgoing)

	line := fmt.Sprintf("%s replaces %s on %s", p.In, p.Out, unitLabel(c, p.Unit))
	return Outcome{Kind: Applied, Audit: []string{line}, Announcement: line, ResetIdle: true}
}

func startMatch(c *club.Club, req Request, p StartMatch) Outcome {
	sport := c.SportOf()
	if p.Unit >= c.ActiveUnitCount {
		return reject("%s is out of range", unitLabel(c, p.Unit))
	}
	key := club.UnitKey(p.Unit)
	if _, busy := c.UnitOccupants[key]; busy {
		return reject("%s is already in use", unitLabel(c, p.Unit))
	}
	if len(p.Players) != sport.PlayersPerUnit {
		return reject("%s needs %d players, got %d", sport.DisplayName, sport.PlayersPerUnit, len(p.Players))
	}
	indices := make([]int, len(p.Players))
	seen := make(map[string]bool, len(p.Players))
	for n, name := range p.Players {
		if name == "" {
			return reject("blank player name")
		}
		if seen[name] {
			return reject("%s named twice", name)
		}
		seen[name] = true
		indices[n] = c.QueueIndex(name)
		if indices[n] < 0 {
			return reject("%s is not waiting", name)
		}
	}
	if !isTrusted(c, req) {
		if !seen[req.Requester] {
			return reject("untrusted %s is not in the match", req.Requester)
		}
		if topName(c) != req.Requester {
			return reject("untrusted %s is not first in line", req.Requester)
		}
		for n, i := range indices {
			if i >= c.PickRange {
				return reject("%s is outside the pick range", p.Players[n])
			}
		}
	}

	occupants := make([]club.QueueEntry, len(indices))
	for n, i := range indices {
		e := c.WaitingQueue[i]
		e.IsPaused = false
		occupants[n] = e
	}
	c.WaitingQueue = slices.DeleteFunc(c.WaitingQueue, func(e club.QueueEntry) bool { return seen[e.Name] })
	c.UnitOccupants[key] = occupants
	for _, e := range occupants {
		rosterPlayer(c, e).Games++
	}

	label := unitLabel(c, p.Unit)
	return Outcome{
		Kind:         Applied,
		Audit:        []string{fmt.Sprintf("Match started on %s: %s", label, joinNames(p.Players))},
		Announcement: fmt.Sprintf("%s: %s", label, joinNames(p.Players)),
		ResetIdle:    true,
	}
}

// maxWinners is the number of winners recorded per match.
const maxWinners = 2

func finishMatch(c *club.Club, req Request, p FinishMatch, now time.Time) Outcome {
	key := club.UnitKey(p.Unit)
	occupants, busy := c.UnitOccupants[key]
	if !busy {
		return reject("%s is not in use", unitLabel(c, p.Unit))
	}
	onUnit := make(map[string]bool, len(occupants))
	names := make([]string, len(occupants))
	for i, e := range occupants {
		onUnit[e.Name] = true
		names[i] = e.Name
	}
	if !isTrusted(c, req) && !onUnit[req.Requester] {
		return reject("untrusted %s is not playing on %s", req.Requester, unitLabel(c, p.Unit))
	}

	var winners []string
	for _, w := range p.Winners {
		if len(winners) == maxWinners {
			break
		}
		if onUnit[w] && !slices.Contains(winners, w) {
			winners = append(winners, w)
		}
	}

	delete(c.UnitOccupants, key)
	for _, e := range occupants {
		if c.QueueIndex(e.Name) >= 0 {
			continue
		}
		e.IsPaused = false
		c.WaitingQueue = append(c.WaitingQueue, e)
	}

	half := len(names) / 2
	c.MatchHistory = append(c.MatchHistory, club.MatchRecord{
		Timestamp: now,
		UnitIndex: p.Unit,
		TeamA:     slices.Clone(names[:half]),
		TeamB:     slices.Clone(names[half:]),
		Winners:   winners,
	})
	if over := len(c.MatchHistory) - club.MaxHistory; over > 0 {
		c.MatchHistory = slices.Clone(c.MatchHistory[over:])
	}
	for _, w := range winners {
		for _, e := range occupants {
			if e.Name == w {
				rosterPlayer(c, e).Wins++
			}
		}
	}
	c.SavedQueue = slices.Clone(c.WaitingQueue)

	result := c.MatchHistory[len(c.MatchHistory)-1]
	label := unitLabel(c, p.Unit)
	line := fmt.Sprintf("Match finished on %s, no winners recorded", label)
	if len(winners) > 0 {
		line = fmt.Sprintf("Match finished on %s, won by %s", label, joinNames(winners))
	}
	return Outcome{
		Kind:         Applied,
		Audit:        []string{line},
		Announcement: fmt.Sprintf("%s is free", label),
		ResetIdle:    true,
		Result:       &result,
	}
}

func grantPowerGuest(c *club.Club, req Request, p GrantPowerGuest) Outcome {
	if !req.FromHost {
		return reject("%s is not the host", req.Requester)
	}
	i := c.QueueIndex(p.Name)
	if i < 0 {
		return reject("%s is not waiting", p.Name)
	}
	want := !p.Revoke
	if c.WaitingQueue[i].IsElevatedGuest == want {
		return reject("%s already has elevated=%t", p.Name, want)
	}
	c.WaitingQueue[i].IsElevatedGuest = want

	line := fmt.Sprintf("Host granted queue management to %s", p.Name)
	if p.Revoke {
		line = fmt.Sprintf("Host revoked queue management from %s", p.Name)
	}
	return Outcome{Kind: Applied, Audit: []string{line}}
}

func claimPowerGuest(c *club.Club, req Request, p ClaimPowerGuest) Outcome {
	if c.ElevatedGuestSecret == "" {
		return reject("no elevated-guest code configured")
	}
	i := c.QueueIndex(req.Requester)
	if i < 0 {
		return reject("%s is not waiting", req.Requester)
	}
	if !credential.Verify(c.ElevatedGuestSecret, p.Secret) {
		return rejectWithAudit(fmt.Sprintf("%s failed to claim queue management with a wrong code", req.Requester))
	}
	if c.WaitingQueue[i].IsElevatedGuest {
		return reject("%s is already elevated", req.Requester)
	}
	c.WaitingQueue[i].IsElevatedGuest = true
	return Outcome{Kind: Applied, Audit: []string{fmt.Sprintf("%s claimed queue management", req.Requester)}}
}

// rosterPlayer returns the roster row for e in the club's sport, adding it
// if the player is not on the roster yet.
func rosterPlayer(c *club.Club, e club.QueueEntry) *club.RosterPlayer {
	sport := c.SportOf().Key
	i := c.RosterIndex(e.Name)
	if i < 0 {
		c.Roster[sport] = append(c.Roster[sport], club.RosterPlayer{Name: e.Name, Gender: e.Gender})
		i = len(c.Roster[sport]) - 1
	}
	return &c.Roster[sport][i]
}
