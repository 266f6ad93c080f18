package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/courtside/internal/autopick"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/engine"
	"github.com/mauv0809/courtside/internal/processor"
)

// maxBody caps request bodies; the largest legitimate body is a batch join.
const maxBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, club.ErrClubNotFound):
		status = http.StatusNotFound
	case errors.Is(err, processor.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, club.ErrClubExists),
		errors.Is(err, club.ErrVersionConflict),
		errors.Is(err, autopick.ErrNotEnoughPlayers):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, engine.ErrMalformedPayload),
		errors.Is(err, engine.ErrMissingRequester),
		errors.Is(err, engine.ErrEmptyPlayerList),
		errors.Is(err, engine.ErrMissingUnit),
		errors.Is(err, engine.ErrNegativeUnit),
		errors.Is(err, engine.ErrTooManyBatchNames):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		http.Error(w, "Internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug("Rejected malformed body", "path", r.URL.Path, "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeOutcome(w http.ResponseWriter, out engine.Outcome) {
	resp := outcomeResponse{Kind: out.Kind.String()}
	switch out.Kind {
	case engine.Applied:
		v := viewOf(out.State)
		resp.Club = &v
		writeJSON(w, http.StatusOK, resp)
	case engine.Acknowledged:
		writeJSON(w, http.StatusOK, resp)
	default:
		resp.Reason = out.Reason
		writeJSON(w, http.StatusConflict, resp)
	}
}

func (s *Server) CreateClubHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createClubRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, err := s.Processor.CreateClub(r.Context(), req.ID, req.Sport)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Info("Created club", "clubID", c.ID, "sport", c.Sport)
		writeJSON(w, http.StatusCreated, viewOf(c))
	}
}

func (s *Server) ListClubsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Processor.ActiveClubs())
	}
}

func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.Counters.GetAll()
		if err != nil {
			log.Error("Failed to read lifetime counters", "error", err)
			http.Error(w, "Failed to read stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) GetClubHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Processor.Snapshot(r.Context(), clubIDParam(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// AutopickHandler suggests the next match for the first free unit.
func (s *Server) AutopickHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Processor.Snapshot(r.Context(), clubIDParam(r))
		if err != nil {
			writeError(w, err)
			return
		}
		indices, err := autopick.Select(c)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := autopickResponse{Unit: -1, Indices: indices, Players: make([]string, len(indices))}
		for i, idx := range indices {
			resp.Players[i] = c.WaitingQueue[idx].Name
		}
		for u := 0; u < c.ActiveUnitCount; u++ {
			if _, busy := c.UnitOccupants[club.UnitKey(u)]; !busy {
				resp.Unit = u
				break
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SubmitRequestHandler queues a guest request for the host.
func (s *Server) SubmitRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id, err := s.Processor.Submit(r.Context(), clubIDParam(r), req.Action, req.Payload, req.Requester)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "request sent"})
	}
}

func (s *Server) HeartbeatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req heartbeatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.Processor.Heartbeat(r.Context(), clubIDParam(r), req.Requester); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) DeleteClubHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID := clubIDParam(r)
		if err := s.Processor.DeleteClub(r.Context(), clubID); err != nil {
			writeError(w, err)
			return
		}
		log.Info("Deleted club", "clubID", clubID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HostActionHandler applies a trusted request immediately.
func (s *Server) HostActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req hostActionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		out, err := s.Processor.ApplyHost(r.Context(), clubIDParam(r), req.Action, req.Payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOutcome(w, out)
	}
}

func (s *Server) ResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.Processor.ResetSession(r.Context(), clubIDParam(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOutcome(w, out)
	}
}

func (s *Server) WipeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.Processor.Wipe(r.Context(), clubIDParam(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOutcome(w, out)
	}
}

func (s *Server) RestoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.Processor.RestoreSavedQueue(r.Context(), clubIDParam(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOutcome(w, out)
	}
}

func (s *Server) SettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch engine.SettingsPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		out, err := s.Processor.UpdateSettings(r.Context(), clubIDParam(r), patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOutcome(w, out)
	}
}

// DrainHandler applies pending guest requests now instead of waiting for
// the next poll.
func (s *Server) DrainHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Processor.Drain(r.Context(), clubIDParam(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"processed": n})
	}
}

func (s *Server) AuditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Audit.Lines(clubIDParam(r)))
	}
}
