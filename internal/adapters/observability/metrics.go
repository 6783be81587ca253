package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pms", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms", Name: "external_requests_total", Help: "Outbound PMS API requests."},
		[]string{"operation", "outcome"}, // outcome: ok|retry|exhausted
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pms", Name: "external_request_duration_seconds",
			Help:    "Outbound PMS API request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms", Name: "webhook_events_total", Help: "Webhook events by terminal state."},
		[]string{"vendor", "state"}, // state: done|rejected|aborted
	)
	ReconcileOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms", Name: "reconcile_outcomes_total", Help: "Stay reconciliation outcomes."},
		[]string{"outcome"}, // outcome: created|updated|noop|failed
	)
	GuestAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms", Name: "guest_anomalies_total", Help: "Guest data anomalies observed, not fatal."},
		[]string{"kind"}, // kind: invalid_phone|name_mismatch
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"},
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		WebhookEvents, ReconcileOutcomes, GuestAnomalies, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(operation, outcome string, dur time.Duration) {
	ExternalRequests.WithLabelValues(operation, outcome).Inc()
	ExternalLatency.WithLabelValues(operation).Observe(dur.Seconds())
}

func ObserveWebhook(vendor, state string) {
	WebhookEvents.WithLabelValues(vendor, state).Inc()
}

func ObserveReconcile(outcome string) {
	ReconcileOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveGuestAnomaly(kind string) {
	GuestAnomalies.WithLabelValues(kind).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
