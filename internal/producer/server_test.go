package producer

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestServer(q *countingQueue) *Server {
	logger := zap.NewNop()
	return NewServer(NewMapper(logger), NewPublisher(q, nil), logger, nil)
}

func TestHandleWebhookAccepts(t *testing.T) {
	q := &countingQueue{}
	srv := newTestServer(q)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(webhookBody(t, "ETH_MAINNET", 4, 2)))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.batches) != 1 {
		t.Fatalf("expected 1 send batch, got %d", len(q.batches))
	}
}

func TestHandleWebhookRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(&countingQueue{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleWebhookPublishFailureIsServerError(t *testing.T) {
	srv := newTestServer(&countingQueue{fail: true})

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(webhookBody(t, "ETH_MAINNET", 2, 2)))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&countingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
