package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/courtside/internal/audit"
	"github.com/mauv0809/courtside/internal/broadcast"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/config"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/processor"
	"github.com/mauv0809/courtside/internal/pubsub"
)

type Server struct {
	Processor      *processor.Processor
	Audit          *audit.Log
	Hub            *broadcast.Hub
	Counters       metrics.MetricsStore
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         chi.Router
	pubsub         pubsub.PubSubClient
}

// submitRequest is a guest request as posted by a client.
type submitRequest struct {
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Requester string          `json:"requester"`
}

type hostActionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type createClubRequest struct {
	ID    string `json:"id"`
	Sport string `json:"sport"`
}

type heartbeatRequest struct {
	Requester string `json:"requester"`
}

// clubView is the client-facing document. Secret hashes never leave the
// server; clients only learn whether one is set.
type clubView struct {
	club.Club
	HasJoinSecret     bool `json:"has_join_secret"`
	HasElevatedSecret bool `json:"has_elevated_guest_secret"`
}

type outcomeResponse struct {
	Kind   string    `json:"kind"`
	Reason string    `json:"reason,omitempty"`
	Club   *clubView `json:"club,omitempty"`
}

type autopickResponse struct {
	Unit    int      `json:"unit"`
	Indices []int    `json:"indices"`
	Players []string `json:"players"`
}

// stateMessage is pushed to websocket subscribers on every change.
type stateMessage struct {
	Type    string   `json:"type"`
	Version int64    `json:"version"`
	Club    clubView `json:"club"`
}

func viewOf(c club.Club) clubView {
	v := clubView{
		Club:              c,
		HasJoinSecret:     c.JoinSecret != "",
		HasElevatedSecret: c.ElevatedGuestSecret != "",
	}
	v.JoinSecret = ""
	v.ElevatedGuestSecret = ""
	return v
}
