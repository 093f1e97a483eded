package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ConsumerConfig holds configuration for the consume command.
type ConsumerConfig struct {
	QueueDSN     string
	StoreDSN     string
	ArchiveOut   string
	BatchSize    int
	PollInterval time.Duration
	Visibility   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadConsumer merges config file, environment variables, and flags into
// ConsumerConfig.
func LoadConsumer(cfgFile string, flags *pflag.FlagSet) (ConsumerConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"batch-size":    10,
		"poll-interval": time.Second,
		"visibility":    30 * time.Second,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"archive-out":   "./data/archive.jsonl",
		"log-level":     "info",
	})
	if err != nil {
		return ConsumerConfig{}, err
	}

	return ConsumerConfig{
		QueueDSN:     v.GetString("queue-dsn"),
		StoreDSN:     v.GetString("store-dsn"),
		ArchiveOut:   v.GetString("archive-out"),
		BatchSize:    v.GetInt("batch-size"),
		PollInterval: v.GetDuration("poll-interval"),
		Visibility:   v.GetDuration("visibility"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
