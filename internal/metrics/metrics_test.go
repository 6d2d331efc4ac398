package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveJob_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(jobsTotal.WithLabelValues("acme", "success"))
	ObserveJob("acme", "success")
	assert.Equal(t, before+1, testutil.ToFloat64(jobsTotal.WithLabelValues("acme", "success")))
}

func TestObserveBreakerTrip_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(breakerTripsTotal.WithLabelValues("acme"))
	ObserveBreakerTrip("acme")
	assert.Equal(t, before+1, testutil.ToFloat64(breakerTripsTotal.WithLabelValues("acme")))
}

func TestObserveClassifierVote_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(classifierVotesTotal.WithLabelValues("rules", "benign"))
	ObserveClassifierVote("rules", "benign")
	assert.Equal(t, before+1, testutil.ToFloat64(classifierVotesTotal.WithLabelValues("rules", "benign")))
}

func TestActiveBrowserSessionsGauge_IncDec(t *testing.T) {
	before := testutil.ToFloat64(activeBrowserSessions)
	IncActiveBrowserSessions()
	assert.Equal(t, before+1, testutil.ToFloat64(activeBrowserSessions))
	DecActiveBrowserSessions()
	assert.Equal(t, before, testutil.ToFloat64(activeBrowserSessions))
}

func TestObserveFetchDuration_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { ObserveFetchDuration("acme", 250*time.Millisecond) })
}

func TestHandler_ReturnsNonNilHandler(t *testing.T) {
	assert.NotNil(t, Handler())
}
