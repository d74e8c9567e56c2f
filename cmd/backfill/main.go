package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/database"
	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/metrics"
	"github.com/emojicoin/indexer/internal/processor"
	"github.com/emojicoin/indexer/internal/stream"
	"github.com/emojicoin/indexer/internal/version"
	"github.com/emojicoin/indexer/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/indexer.local.yaml", "path to config file")
	fromVersion := flag.Int64("from", 0, "first transaction version to backfill")
	toVersion := flag.Int64("to", -1, "last transaction version to backfill (inclusive)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *toVersion < *fromVersion {
		logger.Error("invalid range: -to must be >= -from", "from", *fromVersion, "to", *toVersion)
		os.Exit(1)
	}

	logger.Info("starting backfill",
		"version", version.Version,
		"from_version", *fromVersion,
		"to_version", *toVersion,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := database.NewStore(pool)
	m := metrics.New(prometheus.DefaultRegisterer)

	tags := event.NewTypeTags(cfg.Feed.ModuleAddress, cfg.Feed.ArenaAddress)
	proc := processor.New(tags, store, logger)
	if err := proc.LoadMeleeState(ctx); err != nil {
		logger.Error("failed to load melee state", "error", err)
		os.Exit(1)
	}

	workers := cfg.Backfill.Workers
	if workers > 1 && tags.ArenaEnabled() {
		// Interleaved sub-ranges would feed the melee state machine out of
		// version order.
		logger.Warn("arena indexing requires ordered input, forcing a single worker")
		workers = 1
	}

	backfill := stream.NewBackfill(cfg.Feed, workers, m, logger)
	runErr := make(chan error, 1)
	go func() { runErr <- backfill.Run(ctx, *fromVersion, *toVersion) }()

	w := writer.New(pool, logger)
	started := time.Now()
	batches := 0

	exitCode := 0
	for batch := range backfill.Batches() {
		rows, err := proc.ProcessBatch(ctx, batch)
		if err != nil {
			logger.Error("failed to process batch",
				"first_version", batch.FirstVersion(),
				"error", err,
			)
			exitCode = 1
			cancel()
			break
		}
		if _, err := w.WriteBatch(ctx, rows); err != nil {
			logger.Error("failed to write batch",
				"first_version", rows.FirstVersion,
				"error", err,
			)
			exitCode = 1
			cancel()
			break
		}
		m.BatchesProcessed.Inc()
		m.TransactionsProcessed.Add(float64(len(batch.Transactions)))
		batches++
	}

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("backfill failed", "error", err)
		exitCode = 1
	}

	logger.Info("backfill finished",
		"batches", batches,
		"elapsed", time.Since(started),
	)
	os.Exit(exitCode)
}
