package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/planning-poker-backend/internal/config"
	"github.com/DoyleJ11/planning-poker-backend/internal/httpapi"
	"github.com/DoyleJ11/planning-poker-backend/internal/hub"
	"github.com/DoyleJ11/planning-poker-backend/internal/logging"
	"github.com/DoyleJ11/planning-poker-backend/internal/room"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/tracker"
	"github.com/DoyleJ11/planning-poker-backend/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	var trk session.Tracker = session.NoTracker{}
	if cfg.Jira.Enabled() {
		c, err := tracker.NewClient(tracker.Config{
			BaseURL:                 cfg.Jira.URL,
			Username:                cfg.Jira.Username,
			Token:                   cfg.Jira.Password,
			StoryPointField:         cfg.Jira.StoryPointField,
			DescriptionField:        cfg.Jira.DescriptionField,
			AcceptanceCriteriaField: cfg.Jira.AcceptanceCriteriaField,
			Timeout:                 cfg.Jira.Timeout,
			Retries:                 cfg.Jira.Retries,
			RetryWait:               cfg.Jira.RetryWait,
			Logger:                  log,
		})
		if err != nil {
			return err
		}
		trk = c
		log.Info("issue tracker enabled", zap.String("url", cfg.Jira.URL))
	} else {
		log.Info("no issue tracker configured, estimates stay local")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, room.Options{
		Rules:   session.Rules{ModeratorOnly: cfg.ModeratorOnly, MaskVotes: cfg.MaskVotes},
		Tracker: trk,
		Logger:  log,
	})
	if h.Ensure(ctx, cfg.DefaultRoom) == nil {
		return errors.New("could not create the default room")
	}

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, httpapi.Options{
		Tracker:   trk,
		MaskVotes: cfg.MaskVotes,
		Logger:    log,
		WS: ws.Options{
			DefaultRoom:    cfg.DefaultRoom,
			OutboxSize:     cfg.OutboxSize,
			OriginPatterns: cfg.AllowedOrigins,
			Logger:         log,
		},
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// closing the rooms hangs up the hijacked websocket connections
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
