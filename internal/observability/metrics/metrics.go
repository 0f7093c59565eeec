package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics exposes counters/histograms for the booking path.
type SchedulingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	bookingLatency *prometheus.HistogramVec
}

// NewSchedulingMetrics registers the scheduling metrics on reg (or the
// default registerer when nil).
func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of booking validation and persistence",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.bookingLatency)
	return m
}

// ObserveBooking records one booking attempt. Outcomes: booked, conflict,
// past_date, invalid, error.
func (m *SchedulingMetrics) ObserveBooking(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
	m.bookingLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ReportMetrics counts financial report computations and cache behavior.
type ReportMetrics struct {
	reportsTotal *prometheus.CounterVec
}

// NewReportMetrics registers the reporting metrics.
func NewReportMetrics(reg prometheus.Registerer) *ReportMetrics {
	m := &ReportMetrics{
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "reports",
			Name:      "financial_total",
			Help:      "Financial report computations by cache result",
		}, []string{"cache"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reportsTotal)
	return m
}

// ObserveReport records one report computation; cache is hit, miss or off.
func (m *ReportMetrics) ObserveReport(cache string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(cache).Inc()
}
