package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "orderflow",
		Short:        "Cross-chain order event pipeline",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	produceCmd := &cobra.Command{
		Use:   "produce",
		Short: "Run the webhook producer",
		RunE:  runProduce,
	}

	produceCmd.Flags().String("listen", ":8080", "HTTP listen address")
	produceCmd.Flags().String("queue-dsn", "", "Postgres DSN for the queue (empty uses in-memory)")
	produceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(produceCmd)

	consumeCmd := &cobra.Command{
		Use:   "consume",
		Short: "Run the queue consumer",
		RunE:  runConsume,
	}

	consumeCmd.Flags().String("queue-dsn", "", "Postgres DSN for the queue (empty uses in-memory)")
	consumeCmd.Flags().String("store-dsn", "", "Postgres DSN for orders and archive (empty uses in-memory)")
	consumeCmd.Flags().String("archive-out", "./data/archive.jsonl", "archive JSONL path when no store DSN is set")
	consumeCmd.Flags().Int("batch-size", 10, "messages per delivery batch")
	consumeCmd.Flags().Duration("poll-interval", time.Second, "idle poll interval")
	consumeCmd.Flags().Duration("visibility", 30*time.Second, "in-flight visibility timeout")
	consumeCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	consumeCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	consumeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(consumeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
