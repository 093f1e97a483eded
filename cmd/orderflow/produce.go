package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderflow/internal/config"
	"orderflow/internal/metrics"
	"orderflow/internal/producer"
	"orderflow/internal/queue"
)

func runProduce(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadProducer(cfgFile, cmd.Flags())
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

	var publisher queue.Publisher
	if cfg.QueueDSN != "" {
		pq, err := queue.NewPostgresQueue(ctx, cfg.QueueDSN, 30*time.Second)
		if err != nil {
			return err
		}
		defer pq.Close()
		if err := pq.EnsureSchema(ctx); err != nil {
			return err
		}
		publisher = pq
	} else {
		logger.Warn("no queue DSN configured, using in-memory queue")
		publisher = queue.NewMemoryQueue(30 * time.Second)
	}

	m := metrics.Init()
	server := producer.NewServer(
		producer.NewMapper(logger),
		producer.NewPublisher(publisher, m),
		logger,
		m,
	)

	logger.Info("producer start",
		zap.String("listen", cfg.ListenAddr),
		zap.Bool("postgres_queue", cfg.QueueDSN != ""),
	)

	return server.Run(ctx, cfg.ListenAddr)
}
