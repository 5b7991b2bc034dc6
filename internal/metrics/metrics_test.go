package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("test")

	m.Checkout(OutcomeSuccess)
	m.Checkout(OutcomeSuccess)
	m.Payment(OutcomeRejected)
	m.StockDecremented(3)
	m.StockDecremented(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stockUnits))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Checkout(OutcomeError)
		m.Payment(OutcomeSuccess)
		m.StockDecremented(1)
		m.FavoriteToggled("added")
		m.ObserveHTTP("GET", "/", "200", 0.1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New("test")
	m.ObserveHTTP("GET", "GET /products", "200", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="GET /products",status="200"} 1`)
}
