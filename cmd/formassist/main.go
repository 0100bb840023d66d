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

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/form-assist-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/form-assist-service/internal/adapter/kafka"
	"github.com/couchcryptid/form-assist-service/internal/adapter/session"
	"github.com/couchcryptid/form-assist-service/internal/adapter/viacep"
	"github.com/couchcryptid/form-assist-service/internal/assistant"
	"github.com/couchcryptid/form-assist-service/internal/config"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	sessions := session.NewManager(nil, cfg.SessionIdleTimeout, cfg.SessionMax, logger, metrics)
	lookup := viacep.NewClient(cfg.LookupBaseURL, cfg.LookupTimeout, metrics, logger)

	// Submission publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher assistant.SubmissionPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, nil, logger)
		publisher = writer
		logger.Info("submission publishing enabled", "topic", cfg.KafkaSubmissionTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("submission publishing disabled")
	}

	forms := httpadapter.NewFormHandler(sessions, lookup, publisher, httpadapter.FormConfig{
		CookieName:     cfg.SessionCookie,
		SecureCookie:   cfg.SessionCookieSecure,
		RequiredFields: cfg.RequiredFields,
	}, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, sessions, forms, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Start session sweeper.
	g.Go(func() error {
		return sessions.Run(gctx, sweepInterval)
	})

	// Drain the server once a signal arrives or either goroutine fails.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
