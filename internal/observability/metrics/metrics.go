package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "scheduler"
	subsystem = "fulfillment"
)

// FulfillmentMetrics exposes counters/histograms for the booking dialog.
type FulfillmentMetrics struct {
	turnsTotal          *prometheus.CounterVec
	validationFailures  *prometheus.CounterVec
	bookingsTotal       *prometheus.CounterVec
	availabilityLookups *prometheus.CounterVec
	turnLatency         *prometheus.HistogramVec
}

func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	m := &FulfillmentMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turns_total",
			Help:      "Total dialog turns by invocation phase and returned directive",
		}, []string{"phase", "directive"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_failures_total",
			Help:      "Slot values rejected by validation",
		}, []string{"slot"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_total",
			Help:      "Booking attempts in the fulfillment phase",
		}, []string{"status"}),
		availabilityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "availability_lookups_total",
			Help:      "Free slot lookups by source (session cache or store)",
		}, []string{"source"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turn_latency_seconds",
			Help:      "Latency of one dialog turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.validationFailures, m.bookingsTotal, m.availabilityLookups, m.turnLatency)
	return m
}

func (m *FulfillmentMetrics) ObserveTurn(phase, directive string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(phase, directive).Inc()
	m.turnLatency.WithLabelValues(phase).Observe(seconds)
}

func (m *FulfillmentMetrics) ObserveValidationFailure(slot string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(slot).Inc()
}

func (m *FulfillmentMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *FulfillmentMetrics) ObserveAvailabilityLookup(source string) {
	if m == nil {
		return
	}
	m.availabilityLookups.WithLabelValues(source).Inc()
}
