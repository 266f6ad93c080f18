package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/mauv0809/courtside/internal/audit"
	"github.com/mauv0809/courtside/internal/broadcast"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/config"
	"github.com/mauv0809/courtside/internal/database"
	server "github.com/mauv0809/courtside/internal/http"
	"github.com/mauv0809/courtside/internal/inbox"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/notifier/slack"
	"github.com/mauv0809/courtside/internal/presence"
	"github.com/mauv0809/courtside/internal/processor"
	"github.com/mauv0809/courtside/internal/pubsub"
	"github.com/mauv0809/courtside/internal/supervisor"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	counters := metrics.New(db)
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)

	var ps pubsub.PubSubClient
	if cfg.ProjectID != "" {
		ps, err = pubsub.New(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer ps.Close()
	} else {
		log.Info("No GCP project configured, running without Pub/Sub")
	}

	hub := broadcast.NewHub()
	fanout := broadcast.New(hub, ps)
	auditLog := audit.New(clock)
	tracker := presence.New(clock)
	proc := processor.New(processor.Deps{
		Store:         club.New(db),
		Inbox:         inbox.New(db, clock),
		Broadcaster:   fanout,
		Notifier:      notifier,
		Metrics:       metricsSvc,
		Counters:      counters,
		Audit:         auditLog,
		Presence:      tracker,
		PubSub:        ps,
		Clock:         clock,
		HostOwnerID:   cfg.Host.OwnerID,
		DrainInterval: cfg.DrainInterval,
	})
	if err := proc.LoadAll(ctx); err != nil {
		log.Fatalf("Failed to load clubs: %s", err)
	}

	topTimer := supervisor.NewTopTimer(proc, clock, cfg.Supervisor.TopTick)
	proc.SetIdleResetter(topTimer)
	evictor := supervisor.NewEvictor(proc, tracker, clock, cfg.Supervisor.EvictInterval, cfg.Supervisor.StaleAfter)

	s := server.NewServer(proc, auditLog, hub, counters, metricsHandler, cfg, ps)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return proc.Run(gctx) })
	g.Go(func() error { return topTimer.Run(gctx) })
	g.Go(func() error { return evictor.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received")

		// Create a context with a timeout for the shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Websocket handlers are hijacked and not tracked by Shutdown.
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
			return err
		}
		log.Info("Server gracefully stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
	}
	proc.Wait()
	fanout.Flush()
	log.Info("Server process shutting down")
}
