package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTick(2)
	m.ObserveTick(0)
	m.IncrementVerdict("passed")
	m.IncrementSighting("recorded")
	m.IncrementSighting("recorded")
	m.IncrementSighting("suppressed")
	m.IncrementPersistFailure("attendanceRecords")
	m.SetEnrolled(3)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Ticks), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.FacesObserved), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LivenessVerdicts.WithLabelValues("passed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Sightings.WithLabelValues("recorded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Sightings.WithLabelValues("suppressed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PersistFailures.WithLabelValues("attendanceRecords")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.EnrolledIdentities), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveTick(1)
		m.IncrementVerdict("failed")
		m.IncrementSighting("recorded")
		m.IncrementPersistFailure("registeredFaces")
		m.SetEnrolled(1)
	})
}
