// Package metrics exposes Prometheus counters for the recognition loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tick loop, liveness and the ledger.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Ticks              prometheus.Counter
	FacesObserved      prometheus.Counter
	LivenessVerdicts   *prometheus.CounterVec
	Sightings          *prometheus.CounterVec
	PersistFailures    *prometheus.CounterVec
	EnrolledIdentities prometheus.Gauge
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "face_attendance_ticks_total",
			Help: "Total number of processed detection ticks",
		}),
		FacesObserved: f.NewCounter(prometheus.CounterOpts{
			Name: "face_attendance_faces_observed_total",
			Help: "Total number of faces seen across all ticks",
		}),
		LivenessVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_attendance_liveness_verdicts_total",
			Help: "Terminal liveness verdicts by outcome",
		}, []string{"verdict"}), // passed, failed, cancelled
		Sightings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_attendance_sightings_total",
			Help: "Recognized sightings by ledger outcome",
		}, []string{"outcome"}), // recorded, duplicate_today, suppressed
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_attendance_persist_failures_total",
			Help: "Failed collection writes by collection",
		}, []string{"collection"}),
		EnrolledIdentities: f.NewGauge(prometheus.GaugeOpts{
			Name: "face_attendance_enrolled_identities",
			Help: "Number of currently enrolled identities",
		}),
	}
}

// ObserveTick records one tick and its face count.
func (m *Metrics) ObserveTick(faces int) {
	if m != nil {
		m.Ticks.Inc()
		m.FacesObserved.Add(float64(faces))
	}
}

// IncrementVerdict records a terminal liveness verdict.
func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.LivenessVerdicts.WithLabelValues(verdict).Inc()
	}
}

// IncrementSighting records a ledger outcome.
func (m *Metrics) IncrementSighting(outcome string) {
	if m != nil {
		m.Sightings.WithLabelValues(outcome).Inc()
	}
}

// IncrementPersistFailure records a failed write of a collection.
func (m *Metrics) IncrementPersistFailure(collection string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(collection).Inc()
	}
}

// SetEnrolled records the current enrolled identity count.
func (m *Metrics) SetEnrolled(n int) {
	if m != nil {
		m.EnrolledIdentities.Set(float64(n))
	}
}
