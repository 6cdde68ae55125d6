package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Post("/api/admin/transactions/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/admin/transactions/{id}/approve", "409")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/transactions/4b6f2c1e-0000-4000-8000-000000000001/approve", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(counter), "request is labelled by route pattern, not by path")
}
