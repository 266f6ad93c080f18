// Package engine validates and applies session requests to a club
// document. Everything here is pure: Apply never mutates its input and
// performs no I/O, so the caller decides what to persist and announce.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/mauv0809/courtside/internal/club"
)

// Kind classifies an Outcome.
type Kind int

const (
	// Rejected leaves state untouched. Reason is for server logs only.
	Rejected Kind = iota
	// RejectedWithAudit leaves state untouched but records Audit lines.
	RejectedWithAudit
	// Applied carries the new state to persist and broadcast.
	Applied
	// Acknowledged is a heartbeat: accepted, nothing to persist.
	Acknowledged
)

func (k Kind) String() string {
	switch k {
	case Rejected:
		return "rejected"
	case RejectedWithAudit:
		return "rejected_with_audit"
	case Applied:
		return "applied"
	case Acknowledged:
		return "acknowledged"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of applying one request.
type Outcome struct {
	Kind         Kind
	State        club.Club
	Audit        []string
	Announcement string
	ResetIdle    bool
	Reason       string
	// Result is the history record written by finish_match.
	Result *club.MatchRecord
}

func reject(reason string, args ...any) Outcome {
	return Outcome{Kind: Rejected, Reason: fmt.Sprintf(reason, args...)}
}

func rejectWithAudit(line string) Outcome {
	return Outcome{Kind: RejectedWithAudit, Audit: []string{line}, Reason: line}
}

// Apply validates req against state and returns the outcome. now stamps
// history records and the document's UpdatedAt.
func Apply(state club.Club, req Request, now time.Time) Outcome {
	if req.Payload == nil || req.Payload.Action() != req.Action {
		return reject("payload does not match action %q", req.Action)
	}
	c := state.Clone()
	var out Outcome
	switch p := req.Payload.(type) {
	case BatchJoin:
		out = batchJoin(&c, req, p)
	case TogglePause:
		out = togglePause(&c, req, p)
	case Leave:
		out = leave(&c, req, p)
	case Substitute:
		out = substitute(&c, req, p)
	case StartMatch:
		out = startMatch(&c, req, p)
	case FinishMatch:
		out = finishMatch(&c, req, p, now)
	case GrantPowerGuest:
		out = grantPowerGuest(&c, req, p)
	case ClaimPowerGuest:
		out = claimPowerGuest(&c, req, p)
	case Heartbeat:
		return Outcome{Kind: Acknowledged}
	default:
		return reject("unsupported payload %T", p)
	}
	if out.Kind == Applied {
		c.UpdatedAt = now
		out.State = c
	}
	return out
}

// isTrusted: the host, or a guest currently holding elevated status in the queue.
func isTrusted(c *club.Club, req Request) bool {
	return req.FromHost || c.IsElevated(req.Requester)
}

// mayTarget reports whether req may act on name.
func mayTarget(c *club.Club, req Request, name string) bool {
	return name == req.Requester || isTrusted(c, req)
}

// topName is the name of the first non-paused queue entry, or "".
func topName(c *club.Club) string {
	if i := c.FirstActive(); i >= 0 {
		return c.WaitingQueue[i].Name
	}
	return ""
}

func unitLabel(c *club.Club, unit int) string {
	return fmt.Sprintf("%s %d", c.SportOf().UnitLabel, unit+1)
}

// joinNames renders ["A","B","C"] as "A, B and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func removeAt(q []club.QueueEntry, i int) []club.QueueEntry {
	return append(q[:i:i], q[i+1:]...)
}
