package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/synthetic-met-data/internal/adapter/gridstore"
	httpadapter "github.com/couchcryptid/synthetic-met-data/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/synthetic-met-data/internal/adapter/kafka"
	"github.com/couchcryptid/synthetic-met-data/internal/adapter/region"
	"github.com/couchcryptid/synthetic-met-data/internal/config"
	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/couchcryptid/synthetic-met-data/internal/observability"
	"github.com/couchcryptid/synthetic-met-data/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	once := flag.Bool("once", false, "exit after the pipeline completes instead of serving artifacts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Region masking is optional: without REGION_SOURCE the output is unmasked.
	var regionSource domain.RegionSource
	if cfg.RegionSource != "" {
		src := region.NewSource(cfg.RegionSource, cfg.RegionName, cfg.RegionTimeout, logger)
		regionSource = region.NewCachedSource(src, cfg.RegionCacheSize)
		logger.Info("region source configured", "source", cfg.RegionSource, "region", cfg.RegionName)
	}

	var notifier pipeline.Notifier
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		notifier = publisher
		logger.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	store := gridstore.NewStore(cfg.DataDir, logger)
	p := pipeline.New(pipeline.NewOptions(cfg), regionSource, store, notifier, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		_, err := p.Run(ctx)
		closePublisher(publisher, logger)
		if err != nil {
			logger.Error("pipeline failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.OutputDir, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Produce the artifact, then refresh it every RUN_INTERVAL. The server keeps
	// running either way so /readyz reports a failure.
	go p.Loop(ctx, clockwork.NewRealClock(), cfg.RunInterval)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closePublisher(publisher, logger)

	logger.Info("shutdown complete")
}

func closePublisher(p *kafkaadapter.Publisher, logger *slog.Logger) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}
}
