// Package metrics holds the Prometheus collectors of the gieok server.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

const namespace = "gieok"

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	MutationsTotal     *prometheus.CounterVec
	AccessKeyDenials   prometheus.Counter
	StoreDuration      *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	FeedClients        prometheus.Gauge
	FeedEventsTotal    *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New registers every collector on reg, or on the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutating operations by entity, operation and result",
		}, []string{"entity", "op", "result"}),

		AccessKeyDenials: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_key_denials_total",
			Help:      "Mutations rejected by the access key gate",
		}),

		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "duration_seconds",
			Help:      "Latency of store calls",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"op"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "List cache lookups by view and outcome",
		}, []string{"view", "outcome"}),

		FeedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Connected change feed subscribers",
		}),

		FeedEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_total",
			Help:      "Change events by table and delivery result",
		}, []string{"table", "result"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status class",
		}, []string{"method", "status"}),

		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Mutation counts one mutating call. The result label is derived from err.
func (m *Metrics) Mutation(entity, op string, err error) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(entity, op, resultOf(err)).Inc()
}

func (m *Metrics) AccessKeyDenied() {
	if m == nil {
		return
	}
	m.AccessKeyDenials.Inc()
}

// ObserveStore records the latency of one store call since start.
func (m *Metrics) ObserveStore(op string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) CacheLookup(view domain.View, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookups.WithLabelValues(string(view), outcome).Inc()
}

func (m *Metrics) FeedClientDelta(delta int) {
	if m == nil {
		return
	}
	m.FeedClients.Add(float64(delta))
}

func (m *Metrics) FeedEvent(table domain.View, result string) {
	if m == nil {
		return
	}
	m.FeedEventsTotal.WithLabelValues(string(table), result).Inc()
}

// HTTPRequest records one served request. status is the numeric code.
func (m *Metrics) HTTPRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method).Observe(d.Seconds())
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidAccessKey):
		return "denied"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
