package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mauv0809/courtside/internal/audit"
	"github.com/mauv0809/courtside/internal/broadcast"
	"github.com/mauv0809/courtside/internal/config"
	"github.com/mauv0809/courtside/internal/http/handlers"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/processor"
	"github.com/mauv0809/courtside/internal/pubsub"
	"github.com/rs/cors"
)

// NewServer wires the routes. ps may be nil, in which case the Pub/Sub push
// endpoint is not mounted.
func NewServer(proc *processor.Processor, auditLog *audit.Log, hub *broadcast.Hub, counters metrics.MetricsStore, metricsHandler http.Handler, cfg config.Config, ps pubsub.PubSubClient) *Server {
	server := &Server{
		Processor:      proc,
		Audit:          auditLog,
		Hub:            hub,
		Counters:       counters,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         chi.NewRouter(),
		pubsub:         ps,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(paramsMiddleware)

	r.Handle("/metrics", s.MetricsHandler)
	r.Get("/health", handlers.HealthCheckHandler())
	if s.pubsub != nil {
		r.Post("/pubsub/requests", handlers.RequestSubmittedHandler(s.Processor, s.pubsub))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.hostAuth)
		r.Post("/clubs", s.CreateClubHandler())
		r.Get("/clubs", s.ListClubsHandler())
		r.Get("/stats", s.StatsHandler())
	})

	r.Route("/clubs/{id}", func(r chi.Router) {
		r.Get("/", s.GetClubHandler())
		r.Get("/autopick", s.AutopickHandler())
		r.Get("/subscribe", s.SubscribeHandler())
		r.Post("/requests", s.SubmitRequestHandler())
		r.Post("/heartbeat", s.HeartbeatHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.hostAuth)
			r.Delete("/", s.DeleteClubHandler())
			r.Post("/actions", s.HostActionHandler())
			r.Post("/reset", s.ResetHandler())
			r.Post("/wipe", s.WipeHandler())
			r.Post("/restore", s.RestoreHandler())
			r.Post("/drain", s.DrainHandler())
			r.Patch("/settings", s.SettingsHandler())
			r.Get("/audit", s.AuditHandler())
		})
	})
}

// Handler returns the router wrapped for browser clients on other origins.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
