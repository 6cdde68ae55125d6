package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Log every request once it is served
// Server errors are logged at error level
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := statusOf(ww)
			args := []any{
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"uri", r.RequestURI,
				"status", status,
				"size", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			if status >= http.StatusInternalServerError {
				l.Error("HTTP request failed", args...)
				return
			}
			l.Info("HTTP request served", args...)
		})
	}
}

// Status is not recorded if handler wrote nothing
func statusOf(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
