package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderflow/internal/archive"
	"orderflow/internal/config"
	"orderflow/internal/decoder"
	"orderflow/internal/metrics"
	"orderflow/internal/pipeline"
	"orderflow/internal/queue"
	"orderflow/internal/reconcile"
)

func runConsume(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConsumer(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source queue.Source
	if cfg.QueueDSN != "" {
		pq, err := queue.NewPostgresQueue(ctx, cfg.QueueDSN, cfg.Visibility)
		if err != nil {
			return err
		}
		defer pq.Close()
		if err := pq.EnsureSchema(ctx); err != nil {
			return err
		}
		source = pq
	} else {
		logger.Warn("no queue DSN configured, using in-memory queue")
		source = queue.NewMemoryQueue(cfg.Visibility)
	}

	var orderStore reconcile.OrderStore
	var archiveStore archive.Store
	if cfg.StoreDSN != "" {
		orders, err := reconcile.NewPostgresStore(ctx, cfg.StoreDSN)
		if err != nil {
			return err
		}
		defer orders.Close()
		if err := orders.EnsureSchema(ctx); err != nil {
			return err
		}
		orderStore = orders

		records, err := archive.NewPostgresStore(ctx, cfg.StoreDSN)
		if err != nil {
			return err
		}
		defer records.Close()
		if err := records.EnsureSchema(ctx); err != nil {
			return err
		}
		archiveStore = records
	} else {
		logger.Warn("no store DSN configured, using in-memory order store",
			zap.String("archive_out", cfg.ArchiveOut))
		orderStore = reconcile.NewMemoryStore()
		archiveStore = archive.NewJsonlStore(cfg.ArchiveOut)
	}

	d, err := decoder.New()
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(
		d,
		reconcile.NewReconciler(orderStore, logger),
		archive.NewWriter(archiveStore),
		logger,
		metrics.Init(),
	)

	loop := pipeline.NewLoop(pipeline.LoopConfig{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, source, runner, logger)

	logger.Info("consumer start",
		zap.Int("batch_size", cfg.BatchSize),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("visibility", cfg.Visibility),
		zap.Bool("postgres_queue", cfg.QueueDSN != ""),
		zap.Bool("postgres_store", cfg.StoreDSN != ""),
	)

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
