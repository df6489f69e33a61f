package hydrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/host"
	"github.com/vango-dev/vessel/pkg/loader"
	"github.com/vango-dev/vessel/pkg/metrics"
	"github.com/vango-dev/vessel/pkg/scheduler"
	"github.com/vango-dev/vessel/pkg/vdom"
)

// DefaultTimeout bounds a Hydrate call when neither the driver nor the
// options set one.
const DefaultTimeout = 30 * time.Second

// ErrNoRegistry is returned by Hydrate on a driver without a registry.
var ErrNoRegistry = errors.New("hydrate: driver has no component registry")

// Driver renders documents on the server. A Driver is safe for concurrent
// use; every Hydrate call runs its own runtime and loop.
type Driver struct {
	registry *component.Registry
	reader   loader.Reader
	metrics  *metrics.Collector
	log      *slog.Logger
	timeout  time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// WithReader sets where component modules and styles are read from.
// Without one, components load without a bundle.
func WithReader(r loader.Reader) Option {
	return func(d *Driver) { d.reader = r }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Driver) { d.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Driver) { d.timeout = t }
}

// New creates a Driver for the components in reg.
func New(reg *component.Registry, opts ...Option) *Driver {
	d := &Driver{registry: reg, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = slog.Default().With("component", "hydrate")
	}
	return d
}

// Registry returns the driver's registry.
func (d *Driver) Registry() *component.Registry { return d.registry }

// Hydrate renders every component in input and returns the serialised
// document. Component failures are reported in Result.Diagnostics; a
// failed bundle load or a timeout replaces the output with a failure
// document. The error is non-nil only when input cannot be parsed or ctx
// ends.
func (d *Driver) Hydrate(ctx context.Context, input string, opts Options) (res *Result, err error) {
	if d.registry == nil {
		return nil, ErrNoRegistry
	}
	start := time.Now()
	ctx, span := d.metrics.StartSpan(ctx, "vessel.hydrate", attribute.String("url", opts.URL))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if res != nil {
			span.SetAttributes(attribute.Int("hosts", res.Hosts), attribute.Int("diagnostics", len(res.Diagnostics)))
		}
		span.End()
	}()

	lang, dir := normalizeLocale(opts.Lang, opts.Dir)
	win, err := dom.NewWindow(input, dom.WindowOptions{URL: opts.URL, Lang: lang, Direction: dir})
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	doc := win.Document

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = d.timeout
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	list := &diag.List{}
	loop := scheduler.NewLoop()
	cache := loader.NewCache(runCtx, readerOrEmpty(d.reader), loop)
	rtOpts := []host.Option{
		host.WithLoop(loop),
		host.WithSSR(vdom.NewIDGenerator()),
		host.WithMode(opts.Mode),
		host.WithReporter(list),
		host.WithMetrics(d.metrics),
		host.WithLogger(d.log.With("url", opts.URL)),
	}
	if d.reader != nil {
		rtOpts = append(rtOpts, host.WithBundleLoader(loader.NewModuleLoader(cache)))
	}
	if lang != "" {
		rtOpts = append(rtOpts, host.WithContext(ContextLang, lang))
	}
	for k, v := range opts.Contexts {
		rtOpts = append(rtOpts, host.WithContext(k, v))
	}
	rt := host.New(doc, d.registry, rtOpts...)
	rt.Define(doc)

	res = &Result{URL: opts.URL}
	res.Hosts = rt.Upgrade(doc.DocumentElement())

	if res.Hosts == 0 {
		list.Report(diag.Newf(diag.CategoryHydrate, diag.LevelInfo, "no components found in %s", describe(opts.URL)))
		res.HTML = input
		res.Diagnostics = list.Items()
		res.Duration = time.Since(start)
		d.metrics.Hydrated(res.Duration, nil)
		d.log.Info("hydrate skipped", "url", opts.URL, "reason", "no components")
		return res, nil
	}

	if err := d.wait(runCtx, rt, loop, cache, list); err != nil {
		if ctx.Err() != nil {
			d.metrics.Hydrated(time.Since(start), ctx.Err())
			return nil, fmt.Errorf("hydrate: %w", ctx.Err())
		}
		list.Report(diag.New(diag.CategoryTimeout, "", err))
	}

	res.Styles = rt.Styles()
	res.Diagnostics = list.Items()
	if res.Failed() {
		res.HTML = diag.FailureHTML(res.Diagnostics)
		res.Duration = time.Since(start)
		d.metrics.Hydrated(res.Duration, errors.New("hydrate failed"))
		d.log.Warn("hydrate failed", "url", opts.URL, "diagnostics", len(res.Diagnostics))
		return res, nil
	}

	p := &postProcessor{doc: doc, reader: d.reader, ctx: runCtx, list: list}
	p.run(opts)
	res.Anchors = collectAnchors(doc)
	res.HTML = doc.String()
	res.Diagnostics = list.Items()
	res.Duration = time.Since(start)

	d.metrics.Hydrated(res.Duration, nil)
	d.log.Info("hydrated", "url", opts.URL, "hosts", res.Hosts, "duration", res.Duration)
	return res, nil
}

// wait runs the loop until every top-level host has loaded and no style
// fetch is pending, then drains work scheduled by the last hooks.
func (d *Driver) wait(ctx context.Context, rt *host.Runtime, loop *scheduler.Loop, cache *loader.Cache, list *diag.List) error {
	err := loop.RunUntil(ctx, func() bool {
		return rt.AppLoaded() && cache.Pending() == 0
	})
	if errors.Is(err, scheduler.ErrStalled) {
		loading := 0
		for _, h := range rt.Hosts() {
			if !h.Loaded() {
				loading++
			}
		}
		return fmt.Errorf("%w: %d hosts still loading", err, loading)
	}
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}

func describe(url string) string {
	if url == "" {
		return "document"
	}
	return url
}

type emptyReader struct{}

func (emptyReader) Read(_ context.Context, name string) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", loader.ErrNotFound, name)
}

func readerOrEmpty(r loader.Reader) loader.Reader {
	if r == nil {
		return emptyReader{}
	}
	return r
}
