package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	webhooksAccepted  prometheus.Counter
	webhooksRejected  prometheus.Counter
	logsQueued        prometheus.Counter
	logsFiltered      prometheus.Counter
	queueSendBatches  prometheus.Counter
	eventsDecoded     prometheus.Counter
	eventsSkipped     prometheus.Counter
	reconcileOutcomes *prometheus.CounterVec
	archiveRecords    prometheus.Counter
	consumerBatches   prometheus.Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes and registers global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			webhooksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_webhooks_accepted_total",
				Help: "Webhook payloads accepted by the producer",
			}),
			webhooksRejected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_webhooks_rejected_total",
				Help: "Webhook payloads rejected as malformed",
			}),
			logsQueued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_logs_queued_total",
				Help: "Logs published to the queue",
			}),
			logsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_logs_filtered_total",
				Help: "Logs dropped by the signature filter",
			}),
			queueSendBatches: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_queue_send_batches_total",
				Help: "Queue send-batch calls issued",
			}),
			eventsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_events_decoded_total",
				Help: "Envelopes decoded into domain events",
			}),
			eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_events_skipped_total",
				Help: "Envelopes skipped (unsupported signature or endpoint)",
			}),
			reconcileOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "orderflow_reconcile_total",
				Help: "Reconcile attempts by outcome",
			}, []string{"outcome"}),
			archiveRecords: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "orderflow_archive_records_total",
				Help: "Audit records written to the archive",
			}),
			consumerBatches: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "orderflow_consumer_batch_size",
				Help:    "Envelopes per consumer invocation",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			}),
		}
		prometheus.MustRegister(
			metrics.webhooksAccepted,
			metrics.webhooksRejected,
			metrics.logsQueued,
			metrics.logsFiltered,
			metrics.queueSendBatches,
			metrics.eventsDecoded,
			metrics.eventsSkipped,
			metrics.reconcileOutcomes,
			metrics.archiveRecords,
			metrics.consumerBatches,
		)
	})
	return metrics
}

func (m *Metrics) WebhookAccepted() {
	if m != nil {
		m.webhooksAccepted.Inc()
	}
}

func (m *Metrics) WebhookRejected() {
	if m != nil {
		m.webhooksRejected.Inc()
	}
}

func (m *Metrics) LogsQueued(n int) {
	if m != nil {
		m.logsQueued.Add(float64(n))
	}
}

func (m *Metrics) LogsFiltered(n int) {
	if m != nil {
		m.logsFiltered.Add(float64(n))
	}
}

func (m *Metrics) QueueSendBatch() {
	if m != nil {
		m.queueSendBatches.Inc()
	}
}

func (m *Metrics) EventDecoded() {
	if m != nil {
		m.eventsDecoded.Inc()
	}
}

func (m *Metrics) EventSkipped() {
	if m != nil {
		m.eventsSkipped.Inc()
	}
}

func (m *Metrics) Reconcile(outcome string) {
	if m != nil {
		m.reconcileOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ArchiveRecords(n int) {
	if m != nil {
		m.archiveRecords.Add(float64(n))
	}
}

func (m *Metrics) ConsumerBatch(size int) {
	if m != nil {
		m.consumerBatches.Observe(float64(size))
	}
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
