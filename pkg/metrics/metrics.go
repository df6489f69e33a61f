// Package metrics holds the Prometheus collectors and the OpenTelemetry
// tracer shared by the runtime, the hydration driver and the server.
//
// Every method is safe to call on a nil *Collector, so instrumentation
// stays optional for embedders and tests.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "vessel").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: a fresh prometheus.NewRegistry()
	Registry prometheus.Registerer

	// TracerName is the instrumentation name of the tracer.
	TracerName string
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithTracerName sets the tracer instrumentation name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:  "vessel",
		Buckets:    prometheus.DefBuckets,
		TracerName: "github.com/vango-dev/vessel",
	}
}

// Collector records runtime and driver metrics.
type Collector struct {
	gatherer prometheus.Gatherer
	tracer   trace.Tracer

	hostsConnected  *prometheus.CounterVec
	hostsActive     prometheus.Gauge
	renders         *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	mutations       prometheus.Counter
	diagnostics     *prometheus.CounterVec
	bundleLoads     *prometheus.CounterVec
	hydrations      *prometheus.CounterVec
	hydrateDuration prometheus.Histogram
}

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)
	c := &Collector{
		tracer: otel.Tracer(config.TracerName),

		hostsConnected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hosts_connected_total",
			Help:        "Total number of host elements connected",
			ConstLabels: config.ConstLabels,
		}, []string{"tag"}),

		hostsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hosts_active",
			Help:        "Number of host elements currently connected",
			ConstLabels: config.ConstLabels,
		}),

		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of host renders",
			ConstLabels: config.ConstLabels,
		}, []string{"tag", "phase"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render and patch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"phase"}),

		mutations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dom_mutations_total",
			Help:        "Total number of document mutations applied by patches",
			ConstLabels: config.ConstLabels,
		}),

		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diagnostics_total",
			Help:        "Total number of diagnostics reported",
			ConstLabels: config.ConstLabels,
		}, []string{"category", "level"}),

		bundleLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bundle_loads_total",
			Help:        "Total number of component bundle loads",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		hydrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydrations_total",
			Help:        "Total number of documents hydrated",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		hydrateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydrate_duration_seconds",
			Help:        "Document hydration duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
	if g, ok := config.Registry.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	return c
}

// Gatherer returns the registry the metrics were registered with, if it
// can be gathered.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// HostConnected records a host connect.
func (c *Collector) HostConnected(tag string) {
	if c == nil {
		return
	}
	c.hostsConnected.WithLabelValues(tag).Inc()
	c.hostsActive.Inc()
}

// HostDisconnected records a host teardown.
func (c *Collector) HostDisconnected() {
	if c == nil {
		return
	}
	c.hostsActive.Dec()
}

// Render records one render of a host. phase is "initial" or "update".
func (c *Collector) Render(tag, phase string, d time.Duration) {
	if c == nil {
		return
	}
	c.renders.WithLabelValues(tag, phase).Inc()
	c.renderDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Mutations adds n applied document mutations.
func (c *Collector) Mutations(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.mutations.Add(float64(n))
}

// Diagnostic records a reported diagnostic.
func (c *Collector) Diagnostic(category, level string) {
	if c == nil {
		return
	}
	c.diagnostics.WithLabelValues(category, level).Inc()
}

// BundleLoad records a bundle load outcome.
func (c *Collector) BundleLoad(err error) {
	if c == nil {
		return
	}
	c.bundleLoads.WithLabelValues(status(err)).Inc()
}

// Hydrated records one hydration and its duration.
func (c *Collector) Hydrated(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.hydrations.WithLabelValues(status(err)).Inc()
	c.hydrateDuration.Observe(d.Seconds())
}

// StartSpan starts a span. The global tracer is used on a nil Collector.
func (c *Collector) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(defaultConfig().TracerName)
	if c != nil {
		tracer = c.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
