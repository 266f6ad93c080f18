package http

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/mauv0809/courtside/internal/club"
)

const writeTimeout = 5 * time.Second

// SubscribeHandler streams the club document to a websocket client: once
// on connect and again after every persisted change. Clients only read.
func (s *Server) SubscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID := clubIDParam(r)
		// Subscribe before the snapshot so no change slips in between.
		sub := s.Hub.Subscribe(clubID)
		defer sub.Close()

		c, err := s.Processor.Snapshot(r.Context(), clubID)
		if err != nil {
			writeError(w, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Warn("Websocket upgrade failed", "clubID", clubID, "error", err)
			return
		}
		defer conn.CloseNow()
		log.Debug("Websocket subscriber connected", "clubID", clubID)

		ctx := conn.CloseRead(r.Context())
		if err := writeState(ctx, conn, c); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				log.Debug("Websocket subscriber left", "clubID", clubID)
				return
			case c, ok := <-sub.C:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "server shutting down")
					return
				}
				if err := writeState(ctx, conn, c); err != nil {
					log.Debug("Websocket write failed", "clubID", clubID, "error", err)
					return
				}
			}
		}
	}
}

func writeState(ctx context.Context, conn *websocket.Conn, c club.Club) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, stateMessage{Type: "state", Version: c.Version, Club: viewOf(c)})
}
