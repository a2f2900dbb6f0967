package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yogastudio"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"result"},
	)

	consentResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consent_resets_total",
			Help:      "Consent flags cleared, by detection source.",
		},
		[]string{"source"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, consentResets)
	})
}

// IncHTTP counts a served request.
func IncHTTP(endpoint string, status int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// IncBooking counts a booking attempt; result is "created", "conflict", "full", etc.
func IncBooking(result string) {
	bookings.WithLabelValues(result).Inc()
}

// IncConsentReset counts a consent flag cleared by source ("event", "sweep", "send_error").
func IncConsentReset(source string) {
	consentResets.WithLabelValues(source).Inc()
}
