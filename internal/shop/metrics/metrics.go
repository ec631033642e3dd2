// Package metrics exposes Prometheus counters for credential events, mail
// dispatch and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services report to. A nil Recorder is skipped.
type Recorder interface {
	AuthEvent(event, outcome string)
	MailDispatch(outcome string)
}

type Collector struct {
	authEvents   *prometheus.CounterVec
	mailDispatch *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector registers the collector's metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "greenbite_auth_events_total",
			Help: "Credential lifecycle operations by event and outcome.",
		}, []string{"event", "outcome"}),
		mailDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "greenbite_mail_dispatch_total",
			Help: "Outbound mail attempts by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "greenbite_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "greenbite_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(c.authEvents, c.mailDispatch, c.httpRequests, c.httpDuration)
	return c
}

func (c *Collector) AuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

func (c *Collector) MailDispatch(outcome string) {
	c.mailDispatch.WithLabelValues(outcome).Inc()
}

// Middleware records one observation per request. Routes are labelled by
// the matched mux pattern so path parameters do not explode cardinality.
// ServeMux stamps the pattern onto the request it receives, so this must
// wrap the mux directly with no request copies in between.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
