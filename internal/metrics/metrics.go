// Package metrics exposes exchange counters in Prometheus format.
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

// Exchange outcomes used as label values
const (
	OutcomeStreamed = "streamed"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry  *prometheus.Registry
	exchanges *prometheus.CounterVec
	deltas    prometheus.Counter
	fallbacks prometheus.Counter
	duration  prometheus.Histogram
}

// New creates collectors registered on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walrus",
			Name:      "exchanges_total",
			Help:      "Finished exchanges by outcome.",
		}, []string{"outcome"}),
		deltas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "walrus",
			Name:      "stream_deltas_total",
			Help:      "Deltas applied from the chunked transport.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "walrus",
			Name:      "fallbacks_total",
			Help:      "Fallback requests issued after a stream failure.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "walrus",
			Name:      "exchange_duration_seconds",
			Help:      "Wall time from submit to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	m.registry.MustRegister(m.exchanges, m.deltas, m.fallbacks, m.duration)
	return m
}

// ObserveDelta counts one applied delta
func (m *Metrics) ObserveDelta() {
	if m == nil {
		return
	}
	m.deltas.Inc()
}

// ObserveFallback counts one fallback request
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// ObserveExchange records a finished exchange
func (m *Metrics) ObserveExchange(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
