package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nkiryanov/sharefin/internal/metrics"
)

// Record request count and duration labelled by route pattern
// Patterns keep label cardinality bounded, e.g. '/api/admin/transactions/{id}/approve'
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		metrics.RecordHTTPRequest(
			r.Method,
			path,
			strconv.Itoa(statusOf(ww)),
			time.Since(start).Seconds(),
		)
	})
}
