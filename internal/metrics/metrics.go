package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "marketpulse"

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	snapshotAssets prometheus.Gauge
	droppedRecords prometheus.Counter
	sinkFailures   *prometheus.CounterVec
	lastSuccess    prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cycle",
				Name:      "runs_total",
				Help:      "Completed pipeline cycles by outcome.",
			},
			[]string{"outcome"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cycle",
				Name:      "duration_seconds",
				Help:      "Wall time of one fetch-derive-publish cycle.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
		),
		snapshotAssets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "assets",
				Help:      "Assets in the most recent snapshot.",
			},
		),
		droppedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "dropped_records_total",
				Help:      "Upstream records dropped as malformed.",
			},
		),
		sinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sink",
				Name:      "failures_total",
				Help:      "Failed publishes by sink.",
			},
			[]string{"sink"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cycle",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful cycle.",
			},
		),
	}

	m.Registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.snapshotAssets,
		m.droppedRecords,
		m.sinkFailures,
		m.lastSuccess,
	)
	return m
}

// CycleDone records one finished cycle.
func (m *Metrics) CycleDone(success bool, started time.Time, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
		m.lastSuccess.Set(float64(started.Add(d).Unix()))
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// SnapshotLoaded records the size of a fetched snapshot.
func (m *Metrics) SnapshotLoaded(assets, dropped int) {
	if m == nil {
		return
	}
	m.snapshotAssets.Set(float64(assets))
	m.droppedRecords.Add(float64(dropped))
}

// SinkFailed counts a failed publish.
func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics listener until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
