package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/pubsub"
)

// Drainer applies a club's pending guest requests.
type Drainer interface {
	Drain(ctx context.Context, clubID string) (int, error)
}

// RequestSubmittedHandler receives push deliveries of RequestSubmitted and
// drains the named club. A non-2xx reply makes Pub/Sub redeliver, so only
// transient failures return one.
func RequestSubmittedHandler(d Drainer, ps pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg pubsub.RequestSubmitted
		env, err := decodePush(r, ps, &msg)
		if err != nil {
			log.Error("Failed to decode push message", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Received request notification", "subscription", env.Subscription, "messageID", env.Message.ID, "clubID", msg.ClubID, "requestID", msg.RequestID)
		if msg.ClubID == "" {
			http.Error(w, "missing club id", http.StatusBadRequest)
			return
		}

		n, err := d.Drain(r.Context(), msg.ClubID)
		switch {
		case errors.Is(err, club.ErrClubNotFound):
			log.Warn("Dropping notification for unknown club", "clubID", msg.ClubID)
		case err != nil:
			log.Error("Drain failed, asking for redelivery", "clubID", msg.ClubID, "error", err)
			http.Error(w, "drain failed", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "drained %d", n)
	}
}
