package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m
		}
	}
	return nil
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(Prometheus(WithRegistry(reg)))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/items/1", "/items/2", "/items/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	ok := findMetric(t, reg, "vessel_http_requests_total", map[string]string{"route": "/items/{id}", "code": "200"})
	if ok == nil || ok.GetCounter().GetValue() != 2 {
		t.Errorf("requests_total{code=200} = %v, want 2", ok)
	}
	notFound := findMetric(t, reg, "vessel_http_requests_total", map[string]string{"route": "/items/{id}", "code": "404"})
	if notFound == nil || notFound.GetCounter().GetValue() != 1 {
		t.Errorf("requests_total{code=404} = %v, want 1", notFound)
	}
	hist := findMetric(t, reg, "vessel_http_request_duration_seconds", map[string]string{"route": "/items/{id}"})
	if hist == nil || hist.GetHistogram().GetSampleCount() != 3 {
		t.Errorf("request_duration_seconds count = %v, want 3", hist)
	}
	inFlight := findMetric(t, reg, "vessel_http_requests_in_flight", nil)
	if inFlight == nil || inFlight.GetGauge().GetValue() != 0 {
		t.Errorf("requests_in_flight = %v, want 0", inFlight)
	}
}

func TestPrometheusMiddlewareUnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := Prometheus(WithRegistry(reg), WithNamespace("test"), WithSubsystem(""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

	m := findMetric(t, reg, "test_requests_total", map[string]string{"route": "unmatched", "method": "POST", "code": "418"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Errorf("requests_total = %v, want 1", m)
	}
}

type recordingProvider struct {
	noop.TracerProvider
	names []string
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{p: p}
}

type recordingTracer struct {
	noop.Tracer
	p *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.p.names = append(t.p.names, name)
	return t.Tracer.Start(ctx, name, opts...)
}

func TestOpenTelemetryMiddleware(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithTracerName("test"),
		WithFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
	)
	var sawSpan bool
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanFromContext(r.Context()) != nil
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/hydrate", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if len(tp.names) != 1 || tp.names[0] != "POST /hydrate" {
		t.Errorf("spans = %v, want [POST /hydrate]", tp.names)
	}
	if !sawSpan {
		t.Error("handler did not see a span in its context")
	}
}
