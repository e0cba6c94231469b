package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// recordSpans installs an SDK provider that keeps finished spans in memory.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	shutdown := Setup("funding-catalog-test", sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = shutdown(context.Background())
		otel.SetTracerProvider(noop.NewTracerProvider())
	})
	return exporter
}

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	Middleware(h).ServeHTTP(rr, req)
	return rr
}

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestMiddleware_CreatesServerSpan(t *testing.T) {
	exporter := recordSpans(t)

	serve(statusHandler(http.StatusOK), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /health/ready" {
		t.Errorf("expected span name 'GET /health/ready', got '%s'", span.Name)
	}
	if span.SpanKind != trace.SpanKindServer {
		t.Errorf("expected server span, got %v", span.SpanKind)
	}

	attrs := attrMap(span.Attributes)
	if attrs["http.method"].AsString() != http.MethodGet {
		t.Errorf("http.method = %q", attrs["http.method"].AsString())
	}
	if attrs["http.path"].AsString() != "/health/ready" {
		t.Errorf("http.path = %q", attrs["http.path"].AsString())
	}
	if attrs["http.status_code"].AsInt64() != http.StatusOK {
		t.Errorf("http.status_code = %d", attrs["http.status_code"].AsInt64())
	}
	if span.Status.Code == codes.Error {
		t.Error("2xx must not mark the span as failed")
	}
	if got := attrMap(span.Resource.Attributes())["service.name"].AsString(); got != "funding-catalog-test" {
		t.Errorf("service.name = %q", got)
	}
}

func TestMiddleware_AddsTraceIDHeader(t *testing.T) {
	exporter := recordSpans(t)

	rr := serve(statusHandler(http.StatusOK), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	got := rr.Header().Get(TraceIDHeader)
	if got == "" {
		t.Fatal("expected trace id header")
	}
	if want := exporter.GetSpans()[0].SpanContext.TraceID().String(); got != want {
		t.Errorf("header %s != span trace id %s", got, want)
	}
}

func TestMiddleware_NoHeaderWithoutProvider(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	rr := serve(statusHandler(http.StatusOK), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := rr.Header().Get(TraceIDHeader); got != "" {
		t.Errorf("expected no trace id header, got %q", got)
	}
}

func TestMiddleware_PropagatesIncomingTraceContext(t *testing.T) {
	exporter := recordSpans(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")

	var inner trace.SpanContext
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
	})
	serve(h, req)

	if inner.TraceID().String() != traceID {
		t.Errorf("handler context trace id = %s, want %s", inner.TraceID(), traceID)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Parent.SpanID().String() != "00f067aa0ba902b7" {
		t.Errorf("span must be a child of the incoming span")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	tests := []struct {
		code      int
		wantError bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusServiceUnavailable, true},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			exporter := recordSpans(t)

			rr := serve(statusHandler(tt.code), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rr.Code != tt.code {
				t.Errorf("response code = %d, want %d", rr.Code, tt.code)
			}
			span := exporter.GetSpans()[0]
			if got := attrMap(span.Attributes)["http.status_code"].AsInt64(); got != int64(tt.code) {
				t.Errorf("http.status_code = %d, want %d", got, tt.code)
			}
			if (span.Status.Code == codes.Error) != tt.wantError {
				t.Errorf("span status = %v, wantError %v", span.Status.Code, tt.wantError)
			}
		})
	}
}

func TestSetup_InstallsPropagator(t *testing.T) {
	recordSpans(t)

	fields := otel.GetTextMapPropagator().Fields()
	found := false
	for _, f := range fields {
		if f == "traceparent" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected traceparent among propagator fields %v", fields)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
}

func TestStartEndSpan(t *testing.T) {
	exporter := recordSpans(t)

	_, ok := StartSpan(context.Background(), "recurrence.candidate", attribute.Int64("parent_id", 7))
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "recurrence.run")
	EndSpan(failed, errors.New("select recurrence candidates: boom"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if attrMap(spans[0].Attributes)["parent_id"].AsInt64() != 7 {
		t.Error("missing parent_id attribute")
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("nil error must leave status unset")
	}
	if spans[1].Status.Code != codes.Error || len(spans[1].Events) == 0 {
		t.Errorf("error must set status and record an event, got %v with %d events",
			spans[1].Status.Code, len(spans[1].Events))
	}
}
