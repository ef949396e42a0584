package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stayline-supplies/api/internal/platform/requestctx"
)

const cloudTraceHeader = "X-Cloud-Trace-Context"

var tracer = otel.Tracer("github.com/stayline-supplies/api/internal/platform/observability")

// TraceMiddleware continues any incoming Cloud Trace context, opens a server
// span for the request, and records the trace ids on the request context.
func TraceMiddleware(projectID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if remote, ok := parseCloudTraceHeader(r.Header.Get(cloudTraceHeader)); ok {
				ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.host", r.Host),
			)
			defer span.End()

			spanCtx := span.SpanContext()
			info := requestctx.TraceInfo{
				TraceID:   spanCtx.TraceID().String(),
				SpanID:    spanCtx.SpanID().String(),
				Sampled:   spanCtx.IsSampled(),
				ProjectID: projectID,
			}
			ctx = requestctx.WithTrace(ctx, info)

			if spanCtx.HasTraceID() {
				sampled := "0"
				if info.Sampled {
					sampled = "1"
				}
				w.Header().Set(cloudTraceHeader, fmt.Sprintf("%s/%s;o=%s", info.TraceID, info.SpanID, sampled))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseCloudTraceHeader decodes "TRACE_ID/SPAN_ID;o=OPTIONS" as sent by
// Google front ends. The span id is decimal, not hex.
func parseCloudTraceHeader(header string) (trace.SpanContext, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return trace.SpanContext{}, false
	}

	rest := header
	options := ""
	if idx := strings.IndexByte(rest, ';'); idx >= 0 {
		options = rest[idx+1:]
		rest = rest[:idx]
	}

	tracePart, spanPart, _ := strings.Cut(rest, "/")
	traceID, err := trace.TraceIDFromHex(strings.ToLower(strings.TrimSpace(tracePart)))
	if err != nil {
		return trace.SpanContext{}, false
	}

	var spanID trace.SpanID
	if spanPart = strings.TrimSpace(spanPart); spanPart != "" {
		decimal, err := strconv.ParseUint(spanPart, 10, 64)
		if err != nil {
			return trace.SpanContext{}, false
		}
		for i := 0; i < 8; i++ {
			spanID[i] = byte(decimal >> (56 - 8*i))
		}
	}

	var flags trace.TraceFlags
	if strings.Contains(options, "o=1") {
		flags = trace.FlagsSampled
	}

	cfg := trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	}
	spanCtx := trace.NewSpanContext(cfg)
	if !spanCtx.IsValid() && !spanCtx.HasTraceID() {
		return trace.SpanContext{}, false
	}
	return spanCtx, true
}
