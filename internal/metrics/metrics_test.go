package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"rfpintake/internal/metrics"
)

func TestObserveAction(t *testing.T) {
	m := metrics.New("rfp")
	m.ObserveAction("getVendors", nil, 10*time.Millisecond)
	m.ObserveAction("getVendors", errors.New("boom"), time.Millisecond)
	m.ObserveUpload("cloudinary", 2048, nil)
	m.ObserveRegistration(nil, false)

	n, err := testutil.GatherAndCount(m.Registry(), "rfp_gateway_actions_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `rfp_gateway_actions_total{action="getVendors",status="error"} 1`)
	require.Contains(t, rec.Body.String(), `rfp_registrations_total{attachment="missing",status="success"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveAction("getRFP", nil, time.Second)
		m.ObserveUpload("s3", 1, nil)
		m.ObserveRegistration(errors.New("x"), true)
		m.ObserveLogin(false)
	})
}
