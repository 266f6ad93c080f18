package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mauv0809/courtside/internal/club"
)

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrMissingRequester  = errors.New("missing requester")
	ErrEmptyPlayerList   = errors.New("player list is empty")
	ErrMissingUnit       = errors.New("unit is required")
	ErrNegativeUnit      = errors.New("unit must not be negative")
	ErrTooManyBatchNames = errors.New("too many players in one batch")
)

// Action names a request type on the wire.
type Action string

const (
	ActionBatchJoin       Action = "batch_join"
	ActionTogglePause     Action = "toggle_pause"
	ActionLeave           Action = "leave"
	ActionSubstitute      Action = "substitute"
	ActionStartMatch      Action = "start_match"
	ActionFinishMatch     Action = "finish_match"
	ActionGrantPowerGuest Action = "grant_power_guest"
	ActionClaimPowerGuest Action = "claim_power_guest"
	ActionHeartbeat       Action = "heartbeat"
)

// maxBatch bounds a single batch_join.
const maxBatch = 64

// Request is a parsed, validated action against one club.
type Request struct {
	ID        string
	Action    Action
	Requester string
	// FromHost is set only for requests issued by the host process itself.
	FromHost bool
	Payload  Payload
}

// Payload is implemented by one struct per action.
type Payload interface {
	Action() Action
}

type PlayerRef struct {
	Name   string      `json:"name"`
	Gender club.Gender `json:"gender"`
}

type BatchJoin struct {
	Players []PlayerRef `json:"players"`
	Secret  string      `json:"secret,omitempty"`
}

type TogglePause struct {
	Name string `json:"name"`
}

type Leave struct {
	Name string `json:"name"`
}

type Substitute struct {
	Unit int    `json:"unit"`
	Out  string `json:"out"`
	In   string `json:"in"`
}

type StartMatch struct {
	Unit    int      `json:"unit"`
	Players []string `json:"players"`
}

type FinishMatch struct {
	Unit    int      `json:"unit"`
	Winners []string `json:"winners"`
}

type GrantPowerGuest struct {
	Name   string `json:"name"`
	Revoke bool   `json:"revoke,omitempty"`
}

type ClaimPowerGuest struct {
	Secret string `json:"secret"`
}

type Heartbeat struct{}

func (BatchJoin) Action() Action       { return ActionBatchJoin }
func (TogglePause) Action() Action     { return ActionTogglePause }
func (Leave) Action() Action           { return ActionLeave }
func (Substitute) Action() Action      { return ActionSubstitute }
func (StartMatch) Action() Action      { return ActionStartMatch }
func (FinishMatch) Action() Action     { return ActionFinishMatch }
func (GrantPowerGuest) Action() Action { return ActionGrantPowerGuest }
func (ClaimPowerGuest) Action() Action { return ActionClaimPowerGuest }
func (Heartbeat) Action() Action       { return ActionHeartbeat }

// ParseRequest decodes and validates an untrusted payload. Every name is
// sanitized here, so everything downstream compares canonical names. A name
// that sanitizes to empty is kept empty and rejected by Apply.
func ParseRequest(action string, raw []byte, requester string, fromHost bool) (Request, error) {
	req := Request{
		Action:    Action(action),
		Requester: club.SanitizeName(requester),
		FromHost:  fromHost,
	}
	if req.Requester == "" && !fromHost {
		return Request{}, ErrMissingRequester
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var err error
	switch req.Action {
	case ActionBatchJoin:
		var p BatchJoin
		if err = decode(raw, &p); err != nil {
			break
		}
		if len(p.Players) == 0 {
			return Request{}, ErrEmptyPlayerList
		}
		if len(p.Players) > maxBatch {
			return Request{}, ErrTooManyBatchNames
		}
		for i := range p.Players {
			p.Players[i].Name = club.SanitizeName(p.Players[i].Name)
			p.Players[i].Gender = club.ParseGender(string(p.Players[i].Gender))
		}
		req.Payload = p
	case ActionTogglePause:
		var p TogglePause
		if err = decode(raw, &p); err != nil {
			break
		}
		p.Name = selfOr(p.Name, req.Requester)
		req.Payload = p
	case ActionLeave:
		var p Leave
		if err = decode(raw, &p); err != nil {
			break
		}
		p.Name = selfOr(p.Name, req.Requester)
		req.Payload = p
	case ActionSubstitute:
		var w struct {
			Unit *int   `json:"unit"`
			Out  string `json:"out"`
			In   string `json:"in"`
		}
		if err = decode(raw, &w); err != nil {
			break
		}
		unit, uerr := unitOf(w.Unit)
		if uerr != nil {
			return Request{}, uerr
		}
		req.Payload = Substitute{Unit: unit, Out: club.SanitizeName(w.Out), In: club.SanitizeName(w.In)}
	case ActionStartMatch:
		var w struct {
			Unit    *int     `json:"unit"`
			Players []string `json:"players"`
		}
		if err = decode(raw, &w); err != nil {
			break
		}
		unit, uerr := unitOf(w.Unit)
		if uerr != nil {
			return Request{}, uerr
		}
		if len(w.Players) == 0 {
			return Request{}, ErrEmptyPlayerList
		}
		req.Payload = StartMatch{Unit: unit, Players: sanitizeAll(w.Players)}
	case ActionFinishMatch:
		var w struct {
			Unit    *int     `json:"unit"`
			Winners []string `json:"winners"`
		}
		if err = decode(raw, &w); err != nil {
			break
		}
		unit, uerr := unitOf(w.Unit)
		if uerr != nil {
			return Request{}, uerr
		}
		req.Payload = FinishMatch{Unit: unit, Winners: sanitizeAll(w.Winners)}
	case ActionGrantPowerGuest:
		var p GrantPowerGuest
		if err = decode(raw, &p); err != nil {
			break
		}
		p.Name = club.SanitizeName(p.Name)
		req.Payload = p
	case ActionClaimPowerGuest:
		var p ClaimPowerGuest
		if err = decode(raw, &p); err != nil {
			break
		}
		req.Payload = p
	case ActionHeartbeat:
		req.Payload = Heartbeat{}
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return Request{}, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, action, err)
	}
	return req, nil
}

// EncodePayload is the inverse of the payload half of ParseRequest.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

func decode(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

func selfOr(name, requester string) string {
	if name == "" {
		return requester
	}
	return club.SanitizeName(name)
}

func unitOf(u *int) (int, error) {
	if u == nil {
		return 0, ErrMissingUnit
	}
	if *u < 0 {
		return 0, ErrNegativeUnit
	}
	return *u, nil
}

func sanitizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = club.SanitizeName(n)
	}
	return out
}
