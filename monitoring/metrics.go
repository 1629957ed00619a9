package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Total booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Total webhook reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of payment gateway initiations",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"outcome"},
	)

	pendingSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pending_transactions_swept_total",
			Help: "Pending transactions failed by the grace-period sweeper",
		},
	)
)

// TrackBooking records a booking attempt outcome.
func TrackBooking(outcome string) {
	bookingOperations.WithLabelValues(outcome).Inc()
}

// TrackReconciliation records a webhook reconciliation outcome.
func TrackReconciliation(outcome string) {
	reconciliations.WithLabelValues(outcome).Inc()
}

// ObserveGatewayRequest records the latency of a gateway initiation.
func ObserveGatewayRequest(outcome string, d time.Duration) {
	gatewayRequestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// TrackSweptPending counts transactions expired by the sweeper.
func TrackSweptPending(n int64) {
	pendingSwept.Add(float64(n))
}

// Serve exposes /metrics on its own port.
func Serve(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%s", port), mux)
}
