package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/usecase"
)

// Metrics holds all Prometheus metrics of the bot
type Metrics struct {
	// Workflow
	StepsTotal   *prometheus.CounterVec
	UpdatesTotal *prometheus.CounterVec

	// Record store
	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec
}

// New registers all metrics in reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		StepsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadbot_workflow_steps_total",
				Help: "Total number of times a workflow step was reached",
			},
			[]string{"step"},
		),
		UpdatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadbot_updates_total",
				Help: "Total number of Telegram updates handled",
			},
			[]string{"kind"}, // command, text, callback
		),
		StoreDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadbot_store_duration_seconds",
				Help:    "Record store call latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"operation"},
		),
		StoreErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadbot_store_errors_total",
				Help: "Total number of failed record store calls",
			},
			[]string{"operation"},
		),
	}
	// нули видны в /metrics сразу после старта
	for _, s := range usecase.Steps() {
		m.StepsTotal.WithLabelValues(string(s))
	}
	return m
}

// Hit implements usecase.FunnelRepository.
func (m *Metrics) Hit(step usecase.Step, _ int64) error {
	m.StepsTotal.WithLabelValues(string(step)).Inc()
	return nil
}

// RecordUpdate counts an inbound update by kind.
func (m *Metrics) RecordUpdate(kind string) {
	m.UpdatesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

// Store wraps a record store with latency and error metrics.
type Store struct {
	next domain.RecordStore
	m    *Metrics
}

func InstrumentStore(next domain.RecordStore, m *Metrics) *Store {
	return &Store{next: next, m: m}
}

func (s *Store) AppendRow(ctx context.Context, values []string) (row int, err error) {
	defer func(start time.Time) { s.m.observe("append_row", start, err) }(time.Now())
	return s.next.AppendRow(ctx, values)
}

func (s *Store) ReadRow(ctx context.Context, row int) (values []string, err error) {
	defer func(start time.Time) { s.m.observe("read_row", start, err) }(time.Now())
	return s.next.ReadRow(ctx, row)
}

func (s *Store) ReadCell(ctx context.Context, row, col int) (value string, err error) {
	defer func(start time.Time) { s.m.observe("read_cell", start, err) }(time.Now())
	return s.next.ReadCell(ctx, row, col)
}

func (s *Store) WriteCell(ctx context.Context, row, col int, value string) (err error) {
	defer func(start time.Time) { s.m.observe("write_cell", start, err) }(time.Now())
	return s.next.WriteCell(ctx, row, col, value)
}

// EnsureHeader passes through when the wrapped store can bootstrap a header.
func (s *Store) EnsureHeader(ctx context.Context, header []string) (err error) {
	b, ok := s.next.(domain.HeaderBootstrapper)
	if !ok {
		return nil
	}
	defer func(start time.Time) { s.m.observe("ensure_header", start, err) }(time.Now())
	return b.EnsureHeader(ctx, header)
}
