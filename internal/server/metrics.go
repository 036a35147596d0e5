package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// apiMetrics counts API calls and observes their latency.
type apiMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newAPIMetrics() *apiMetrics {
	meter := otel.Meter("chorus/server")
	requests, err := meter.Int64Counter("chorus.api.requests",
		metric.WithDescription("API requests by route and status"))
	if err != nil {
		return nil
	}
	duration, err := meter.Float64Histogram("chorus.api.duration_ms",
		metric.WithDescription("API request latency in milliseconds"))
	if err != nil {
		return nil
	}
	return &apiMetrics{requests: requests, duration: duration}
}

// middleware records one observation per request. A nil receiver passes
// through untouched.
func (m *apiMetrics) middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		attrs := metric.WithAttributes(
			attribute.String("route", r.URL.Path),
			attribute.String("method", r.Method),
			attribute.Int("status", sw.status),
		)
		m.requests.Add(r.Context(), 1, attrs)
		m.duration.Record(r.Context(), float64(time.Since(start).Milliseconds()), attrs)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
