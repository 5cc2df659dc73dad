// Package metrics holds the Prometheus instruments of the bot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aatumaykin/idlebot/internal/logger"
)

const Namespace = "idlebot"

type PrometheusMetrics struct {
	gatherer        prometheus.Gatherer
	messagesTotal   prometheus.Counter
	commandsTotal   *prometheus.CounterVec
	removalsTotal   *prometheus.CounterVec
	removalDuration prometheus.Histogram
	persistFailures prometheus.Counter
	deliveryTotal   *prometheus.CounterVec
	trackedUsers    prometheus.Gauge
	idleUsers       prometheus.Gauge
}

// InitPrometheusMetrics creates and registers the instruments on reg.
// A nil reg uses a fresh private registry.
func InitPrometheusMetrics(namespace string, reg *prometheus.Registry) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &PrometheusMetrics{
		gatherer: reg,
		messagesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Inbound group messages processed",
			},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands handled by kind and result",
			},
			[]string{"command", "result"},
		),
		removalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "removals_total",
				Help:      "Removal outcomes by status",
			},
			[]string{"status"},
		),
		removalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "removal_run_duration_seconds",
				Help:      "Duration of removal runs",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120},
			},
		),
		persistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activity_persist_failures_total",
				Help:      "Activity writes that failed to reach the backend",
			},
		),
		deliveryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbound_messages_total",
				Help:      "Outbound message deliveries by result",
			},
			[]string{"result"},
		),
		trackedUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_users",
				Help:      "Users in the activity ledger",
			},
		),
		idleUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "idle_users",
				Help:      "Idle members found by the last evaluation",
			},
		),
	}

	reg.MustRegister(
		m.messagesTotal,
		m.commandsTotal,
		m.removalsTotal,
		m.removalDuration,
		m.persistFailures,
		m.deliveryTotal,
		m.trackedUsers,
		m.idleUsers,
	)

	return m
}

// Nil-receiver safe so components can run without metrics.

func (m *PrometheusMetrics) IncMessages() {
	if m == nil {
		return
	}
	m.messagesTotal.Inc()
}

func (m *PrometheusMetrics) RecordCommand(command, result string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, result).Inc()
}

func (m *PrometheusMetrics) RecordRemoval(status string) {
	if m == nil {
		return
	}
	m.removalsTotal.WithLabelValues(status).Inc()
}

func (m *PrometheusMetrics) ObserveRemovalRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.removalDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *PrometheusMetrics) RecordDelivery(result string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) SetTrackedUsers(n int) {
	if m == nil {
		return
	}
	m.trackedUsers.Set(float64(n))
}

func (m *PrometheusMetrics) SetIdleUsers(n int) {
	if m == nil {
		return
	}
	m.idleUsers.Set(float64(n))
}

// Handler returns the scrape handler for the registry.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *PrometheusMetrics) Serve(ctx context.Context, addr string, log *logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", logger.Field{Key: "addr", Value: addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
