package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sleep-404/SmartDarshan/internal/config"
	"github.com/sleep-404/SmartDarshan/internal/events"
	"github.com/sleep-404/SmartDarshan/internal/hub"
	"github.com/sleep-404/SmartDarshan/internal/server"
	"github.com/sleep-404/SmartDarshan/internal/sim"
	"github.com/sleep-404/SmartDarshan/internal/store"
	"github.com/sleep-404/SmartDarshan/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SmartDarshan backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (SD_NATS_URL not set)")
		}

		// Core components.
		st := store.New(nil)
		dashHub := hub.New(logger)
		feedHub := hub.NewFeedHub(cfg.FeedInterval, logger)

		var supervisor *stream.Supervisor
		if cfg.SourceVideo != "" {
			supervisor = stream.New(cfg.SourceVideo, cfg.HLSDir, publisher, logger)
			if err := supervisor.Start(context.Background()); err != nil {
				// Streaming degrades on its own; simulation and sync continue.
				logger.Warn("stream transcoder not started", "err", err)
			}
		} else {
			logger.Info("streaming disabled (SD_SOURCE_VIDEO not set)")
		}

		srv := server.New(st, dashHub, feedHub, supervisor, publisher, cfg.HLSDir, logger)

		ticker := sim.New(st, cfg.Bounds, cfg.TickInterval, cfg.StateFile, publisher, logger, nil)
		ticker.OnTick = srv.OnTick
		ticker.Start()
		logger.Info("simulation started", "interval", cfg.TickInterval)

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown: stop the schedule, terminate the child, then
		// drain HTTP.
		ticker.Stop()
		logger.Info("simulation stopped")

		if supervisor != nil {
			supervisor.Stop()
			logger.Info("stream transcoder stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
