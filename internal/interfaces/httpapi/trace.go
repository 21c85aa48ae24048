package httpapi

import (
	"context"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("leagueengine/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// No parent span in context (e.g. filtered route like /healthz):
		// avoid creating standalone root spans for internal helpers.
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

// shouldTraceRequest reports whether a request path is worth its own root
// span. Liveness/readiness probes fire far too often to be worth tracing.
func shouldTraceRequest(path string) bool {
	switch strings.TrimSpace(path) {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

// RequestBodyTracing attaches a truncated copy of the request body as a
// span attribute, for debugging malformed client payloads. Disabled by
// default (traceRequestBody=false) since bodies may carry health metrics a
// user would not expect logged verbatim.
func RequestBodyTracing(enabled bool, maxBytes int, next http.Handler) http.Handler {
	if !enabled {
		return next
	}
	if maxBytes <= 0 {
		maxBytes = 4096
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || !shouldTraceRequest(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBytes)))
		_ = r.Body.Close()
		if err == nil {
			span := trace.SpanFromContext(r.Context())
			span.SetAttributes(attribute.String("http.request.body", string(body)))
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		next.ServeHTTP(w, r)
	})
}
