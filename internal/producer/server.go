package producer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/metrics"
)

// maxWebhookBody caps webhook bodies at 4 MiB; one block's logs fit with
// plenty of headroom.
const maxWebhookBody = 4 << 20

// Server is the producer's HTTP front: it accepts webhook block payloads,
// maps them to queue entries, and publishes them.
type Server struct {
	mapper    *Mapper
	publisher *Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewServer(mapper *Mapper, publisher *Publisher, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{mapper: mapper, publisher: publisher, logger: logger, metrics: m}
}

// Routes wires the webhook, health, and metrics endpoints.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.metrics.WebhookRejected()
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	payload, err := ParsePayload(body)
	if err != nil {
		s.metrics.WebhookRejected()
		s.logger.Warn("reject webhook", zap.Error(err))
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	entries, filtered := s.mapper.Map(payload)
	s.metrics.LogsFiltered(filtered)

	if err := s.publisher.Publish(r.Context(), entries); err != nil {
		s.logger.Error("publish failed",
			zap.Error(err),
			zap.String("network", payload.Event.Network),
			zap.Uint64("block", payload.Event.Data.Block.Number),
		)
		http.Error(w, "publish failed", http.StatusInternalServerError)
		return
	}

	s.metrics.WebhookAccepted()
	s.logger.Info("webhook accepted",
		zap.String("network", payload.Event.Network),
		zap.Uint64("block", payload.Event.Data.Block.Number),
		zap.Int("queued", len(entries)),
		zap.Int("filtered", filtered),
	)
	w.WriteHeader(http.StatusCreated)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("producer listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
