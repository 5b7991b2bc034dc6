package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/metrics"
	"github.com/mycoll/marketplace/internal/tracing"
)

const requestIDHeader = "X-Request-ID"

// Observability extracts W3C trace context, tags the request with an id,
// stores a request-scoped logger in the context and records HTTP metrics
// labelled by the route pattern that route reports for the request.
func Observability(base *zap.Logger, m *metrics.Metrics, route func(*http.Request) string) func(http.Handler) http.Handler {
	prop := otel.GetTextMapPropagator()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracing.Start(ctx, "http "+r.Method)
			defer span.End()

			rid := r.Header.Get(requestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, rid)

			fields := []zap.Field{
				zap.String("request_id", rid),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			}
			if traceID, spanID := tracing.IDs(ctx); traceID != "" {
				fields = append(fields, zap.String("trace_id", traceID), zap.String("span_id", spanID))
			}
			lg := base.With(fields...)
			ctx = logging.ContextWithLogger(ctx, lg)

			pattern := route(r)
			if pattern == "" {
				pattern = "unmatched"
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start)

			m.ObserveHTTP(r.Method, pattern, strconv.Itoa(rec.status), elapsed.Seconds())
			lg.Info("http_request",
				zap.String("route", pattern),
				zap.Int("status", rec.status),
				zap.Duration("latency", elapsed))
		})
	}
}

// Recover turns a panic into a 500 and logs it with the request logger.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logging.FromContext(r.Context()).Error("panic", zap.Any("value", v), zap.Stack("stack"))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }
