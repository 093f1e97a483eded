package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/queue"
)

// LoopConfig holds runtime settings for the consumer loop.
type LoopConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Loop is the queue trigger around the Runner: it claims delivery batches,
// runs them, and acks everything that does not need redelivery. Messages in
// FailedIndices stay on the queue and come back after the visibility
// timeout.
type Loop struct {
	cfg    LoopConfig
	source queue.Source
	runner *Runner
	logger *zap.Logger
}

func NewLoop(cfg LoopConfig, source queue.Source, runner *Runner, logger *zap.Logger) *Loop {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{cfg: cfg, source: source, runner: runner, logger: logger}
}

// Run polls until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	if l.source == nil {
		return fmt.Errorf("queue source is nil")
	}
	if l.runner == nil {
		return fmt.Errorf("runner is nil")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := l.receiveWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("receive failed", zap.Error(err))
			messages = nil
		}

		if len(messages) == 0 {
			timer := time.NewTimer(l.cfg.PollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		summary := l.runner.Process(ctx, messages)
		if err := l.ackProcessed(ctx, messages, summary); err != nil {
			l.logger.Error("ack failed", zap.Error(err))
		}
	}
}

// RunOnce claims and processes a single batch; used by tests and one-shot
// invocations.
func (l *Loop) RunOnce(ctx context.Context) (Summary, error) {
	messages, err := l.source.ReceiveBatch(ctx, l.cfg.BatchSize)
	if err != nil {
		return Summary{}, err
	}
	summary := l.runner.Process(ctx, messages)
	if err := l.ackProcessed(ctx, messages, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (l *Loop) receiveWithRetry(ctx context.Context) ([]queue.Message, error) {
	var messages []queue.Message
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		messages, err = l.source.ReceiveBatch(ctx, l.cfg.BatchSize)
		if err != nil {
			l.logger.Warn("receive batch failed", zap.Error(err))
		}
		return err
	})
	return messages, err
}

func (l *Loop) ackProcessed(ctx context.Context, messages []queue.Message, summary Summary) error {
	failed := make(map[int]struct{}, len(summary.FailedIndices))
	for _, index := range summary.FailedIndices {
		failed[index] = struct{}{}
	}

	acked := make([]queue.Message, 0, len(messages))
	for i, msg := range messages {
		if _, ok := failed[i]; ok {
			continue
		}
		acked = append(acked, msg)
	}
	if len(acked) == 0 {
		return nil
	}
	return l.source.Ack(ctx, acked)
}
