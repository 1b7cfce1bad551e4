package otel

import (
	"net/http"

	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Middleware returns an OpenTelemetry middleware for Chi routers. A client
// supplied x-request-id header is attached to the request span.
func Middleware(serviceName string, opts ...otelchi.Option) func(http.Handler) http.Handler {
	baseMiddleware := otelchi.Middleware(serviceName, opts...)

	return func(next http.Handler) http.Handler {
		return baseMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			span := trace.SpanFromContext(r.Context())
			if span.IsRecording() {
				if requestID := r.Header.Get("x-request-id"); requestID != "" {
					span.SetAttributes(attribute.String("request.id", requestID))
				}
			}
			next.ServeHTTP(w, r)
		}))
	}
}
