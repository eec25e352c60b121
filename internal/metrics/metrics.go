package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds the Prometheus instrumentation for the sweeper
type Metrics struct {
	registry *prometheus.Registry

	EventsReceived    prometheus.Counter
	EventsMatched     prometheus.Counter
	SellsAttempted    prometheus.Counter
	SellsSucceeded    prometheus.Counter
	SellsFailed       prometheus.Counter
	SellsSkipped      *prometheus.CounterVec
	SellRetries       prometheus.Counter
	BlockhashFailures prometheus.Counter
	SellDuration      prometheus.Histogram
}

// NewMetrics creates and registers all sweeper metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_events_received_total",
			Help: "Log notifications received from the wallet subscription",
		}),
		EventsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_events_matched_total",
			Help: "Notifications whose logs matched a token activity keyword",
		}),
		SellsAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_sells_attempted_total",
			Help: "Sell transactions started (one per detected position)",
		}),
		SellsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_sells_succeeded_total",
			Help: "Sell transactions accepted by the RPC node",
		}),
		SellsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_sells_failed_total",
			Help: "Sell transactions that exhausted all retry attempts",
		}),
		SellsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweeper_sells_skipped_total",
			Help: "Positions skipped before submission, by reason",
		}, []string{"reason"}),
		SellRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_sell_retries_total",
			Help: "Retry attempts after retryable program errors",
		}),
		BlockhashFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_blockhash_refresh_failures_total",
			Help: "Background blockhash refresh failures",
		}),
		SellDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sweeper_sell_duration_seconds",
			Help:    "Time from position detection to final submission result",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	registry.MustRegister(
		m.EventsReceived,
		m.EventsMatched,
		m.SellsAttempted,
		m.SellsSucceeded,
		m.SellsFailed,
		m.SellsSkipped,
		m.SellRetries,
		m.BlockhashFailures,
		m.SellDuration,
	)

	return m
}

// Serve exposes /metrics on the given port until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, port int, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.WithField("port", port).Info("📊 Metrics server listening")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}

	return nil
}
