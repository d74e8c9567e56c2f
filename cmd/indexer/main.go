package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emojicoin/indexer/internal/api"
	"github.com/emojicoin/indexer/internal/broker"
	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/database"
	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/metrics"
	"github.com/emojicoin/indexer/internal/processor"
	"github.com/emojicoin/indexer/internal/pubsub"
	"github.com/emojicoin/indexer/internal/stream"
	"github.com/emojicoin/indexer/internal/version"
	"github.com/emojicoin/indexer/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/indexer.local.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting indexer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
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

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
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

	lastVersion, err := store.LastProcessedVersion(ctx)
	if err != nil {
		logger.Error("failed to load watermark", "error", err)
		os.Exit(1)
	}
	startVersion := int64(0)
	if lastVersion > 0 {
		startVersion = lastVersion + 1
	}
	var lastCommitted atomic.Int64
	lastCommitted.Store(lastVersion)

	hub := pubsub.NewHub(cfg.Broker.SendBuffer, logger)
	brokerSrv := broker.NewServer(cfg.Broker, hub, logger)
	if err := brokerSrv.Start(); err != nil {
		logger.Error("failed to start broker", "error", err)
		os.Exit(1)
	}

	if cfg.Publisher.NATSURL != "" {
		pub, err := pubsub.NewNATSPublisher(cfg.Publisher.NATSURL, cfg.Publisher.SubjectPrefix, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		go pub.Run(ctx, hub.Subscribe())
	}

	apiSrv := api.NewServer(cfg.API, func() api.Status {
		return api.Status{
			LastCommittedVersion: lastCommitted.Load(),
			Broker:               brokerSrv.Stats(),
		}
	}, logger)
	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start api server", "error", err)
		os.Exit(1)
	}

	client := stream.NewClient(cfg.Feed, m, logger)
	streamErr := make(chan error, 1)
	go func() { streamErr <- client.Run(ctx, startVersion) }()

	w := writer.New(pool, logger)
	logger.Info("pipeline running", "from_version", startVersion)

	exitCode := 0
	var prevDropped int64
	for batch := range client.Batches() {
		rows, err := proc.ProcessBatch(ctx, batch)
		if err != nil {
			logger.Error("failed to process batch",
				"first_version", batch.FirstVersion(),
				"last_version", batch.LastVersion(),
				"error", err,
			)
			exitCode = 1
			break
		}

		writeStart := time.Now()
		result, err := w.WriteBatch(ctx, rows)
		if err != nil {
			logger.Error("failed to write batch",
				"first_version", rows.FirstVersion,
				"last_version", rows.LastVersion,
				"error", err,
			)
			exitCode = 1
			break
		}

		m.BatchesProcessed.Inc()
		m.TransactionsProcessed.Add(float64(len(batch.Transactions)))
		m.WriteDuration.Observe(time.Since(writeStart).Seconds())
		m.LastCommittedVersion.Set(float64(rows.LastVersion))
		lastCommitted.Store(rows.LastVersion)

		events := pubsub.FromBatch(rows, result.Candlesticks, result.ArenaCandlesticks)
		hub.Publish(events)
		m.EventsPublished.Add(float64(len(events)))
		if dropped := hub.Dropped(); dropped > prevDropped {
			m.PublishDrops.Add(float64(dropped - prevDropped))
			prevDropped = dropped
		}
		m.BrokerConnections.Set(float64(brokerSrv.Stats().Connections))
	}
	cancel()

	if err := <-streamErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("feed stopped", "error", err)
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Stop(shutdownCtx); err != nil {
		logger.Warn("api shutdown", "error", err)
	}
	if err := brokerSrv.Stop(shutdownCtx); err != nil {
		logger.Warn("broker shutdown", "error", err)
	}

	logger.Info("indexer stopped", "last_committed_version", lastCommitted.Load())
	os.Exit(exitCode)
}
