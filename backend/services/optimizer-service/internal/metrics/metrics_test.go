package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := New(reg)
	require.NoError(t, err)

	rec.ObserveUpstream("opencharge", nil, 120*time.Millisecond)
	rec.ObserveUpstream("opencharge", errors.New("boom"), time.Second)
	rec.ObserveRequest("")
	rec.ObserveRequest("no_stations")
	rec.ObserveCache("stations", true)
	rec.ObserveCache("stations", false)
	rec.ObserveCache("stations", false)

	expected := `
# HELP optimizer_upstream_requests_total Upstream calls by source and outcome
# TYPE optimizer_upstream_requests_total counter
optimizer_upstream_requests_total{outcome="error",source="opencharge"} 1
optimizer_upstream_requests_total{outcome="success",source="opencharge"} 1
`
	require.NoError(t, testutil.CollectAndCompare(rec.upstreamRequests, strings.NewReader(expected)))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.upstreamDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.requests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.requests.WithLabelValues("no_stations")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.cacheLookups.WithLabelValues("stations", "miss")))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	second.ObserveRequest("")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.requests.WithLabelValues("success")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.ObserveUpstream("mapbox", nil, time.Millisecond)
		rec.ObserveRequest("")
		rec.ObserveCache("records", true)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := New(reg)
	require.NoError(t, err)
	rec.ObserveRequest("")

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `optimizer_requests_total{outcome="success"} 1`)
}
