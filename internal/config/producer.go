package config

import (
	"github.com/spf13/pflag"
)

// ProducerConfig holds configuration for the produce command.
type ProducerConfig struct {
	ListenAddr string
	QueueDSN   string
	LogLevel   string
}

// LoadProducer merges config file, environment variables, and flags into
// ProducerConfig.
func LoadProducer(cfgFile string, flags *pflag.FlagSet) (ProducerConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"listen":    ":8080",
		"log-level": "info",
	})
	if err != nil {
		return ProducerConfig{}, err
	}

	return ProducerConfig{
		ListenAddr: v.GetString("listen"),
		QueueDSN:   v.GetString("queue-dsn"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}
