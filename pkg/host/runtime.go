package host

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/metrics"
	"github.com/vango-dev/vessel/pkg/scheduler"
	"github.com/vango-dev/vessel/pkg/vdom"
)

// Errors returned through tasks.
var (
	ErrNotHost      = errors.New("host: element is not a connected host")
	ErrDestroyed    = errors.New("host: host was disconnected")
	ErrNoMethod     = errors.New("host: no such method")
	ErrInstanceLost = errors.New("host: instance was not created")
)

// DefaultHydratedClass marks hosts that finished loading.
const DefaultHydratedClass = "hydrated"

// BundleLoader loads the bundle of a component type. The task resolves to
// a *component.Bundle, or nil when there is nothing to load.
type BundleLoader interface {
	Load(d *component.Descriptor, mode string) *async.Task
}

// Runtime owns the hosts of one document.
type Runtime struct {
	doc      dom.Platform
	registry *component.Registry
	loop     *scheduler.Loop
	queue    *scheduler.Queue
	patcher  *vdom.Patcher
	bundles  BundleLoader
	watcher  ChildListWatcher
	reporter diag.Reporter
	metrics  *metrics.Collector
	log      *slog.Logger

	mode          string
	hydratedClass string
	ssr           *vdom.IDGenerator
	contexts      map[string]any

	hosts  map[HostID]*Host
	byElm  map[dom.Node]HostID
	nextID HostID

	// tmpDisconnected suppresses connect and disconnect reactions while
	// slot content is being relocated.
	tmpDisconnected bool

	rootActive map[HostID]bool
	connected  int
	appLoaded  bool
	appTask    *async.Task
	appDone    *async.Resolver

	styles map[string]string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLoop runs the runtime's queue on loop.
func WithLoop(loop *scheduler.Loop) Option {
	return func(r *Runtime) { r.loop = loop }
}

// WithBundleLoader sets the bundle loader. Without one every bundle is
// available immediately.
func WithBundleLoader(l BundleLoader) Option {
	return func(r *Runtime) { r.bundles = l }
}

// WithSSR stamps server render ids taken from ids into every patch.
func WithSSR(ids *vdom.IDGenerator) Option {
	return func(r *Runtime) { r.ssr = ids }
}

// WithMode selects the rendering mode used for style ids.
func WithMode(mode string) Option {
	return func(r *Runtime) { r.mode = mode }
}

// WithContext registers a value for Context members.
func WithContext(key string, v any) Option {
	return func(r *Runtime) { r.contexts[key] = v }
}

// WithWatcher sets the child-list watcher.
func WithWatcher(w ChildListWatcher) Option {
	return func(r *Runtime) { r.watcher = w }
}

// WithHydratedClass sets the class added to loaded hosts. Empty disables
// the marker.
func WithHydratedClass(class string) Option {
	return func(r *Runtime) { r.hydratedClass = class }
}

// WithReporter sets the diagnostics sink.
func WithReporter(rep diag.Reporter) Option {
	return func(r *Runtime) { r.reporter = rep }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runtime) { r.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// New creates a Runtime over doc for the descriptors in reg.
func New(doc dom.Platform, reg *component.Registry, opts ...Option) *Runtime {
	r := &Runtime{
		doc:           doc,
		registry:      reg,
		hydratedClass: DefaultHydratedClass,
		contexts:      make(map[string]any),
		hosts:         make(map[HostID]*Host),
		byElm:         make(map[dom.Node]HostID),
		rootActive:    make(map[HostID]bool),
		styles:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loop == nil {
		r.loop = scheduler.NewLoop()
	}
	if r.watcher == nil {
		r.watcher = NopWatcher{}
	}
	if r.reporter == nil {
		r.reporter = &diag.List{}
	}
	if r.log == nil {
		r.log = slog.Default().With("component", "host")
	}
	r.queue = scheduler.NewQueue(r.loop)
	r.patcher = vdom.NewPatcher(doc,
		vdom.WithPropSetter(r),
		vdom.WithRelocator(r),
		vdom.WithContentLookup(r.content),
	)
	r.appTask, r.appDone = async.New()
	return r
}

// Define registers the runtime's element callbacks for every descriptor.
func (r *Runtime) Define(d dom.Definer) {
	for _, tag := range r.registry.Tags() {
		d.Define(tag, r)
	}
}

// Loop returns the runtime's loop.
func (r *Runtime) Loop() *scheduler.Loop { return r.loop }

// Queue returns the runtime's update queue.
func (r *Runtime) Queue() *scheduler.Queue { return r.queue }

// Patcher returns the runtime's patcher.
func (r *Runtime) Patcher() *vdom.Patcher { return r.patcher }

// Registry returns the runtime's registry.
func (r *Runtime) Registry() *component.Registry { return r.registry }

// Platform returns the document the runtime operates on.
func (r *Runtime) Platform() dom.Platform { return r.doc }

// Reporter returns the diagnostics sink.
func (r *Runtime) Reporter() diag.Reporter { return r.reporter }

// Host returns the host bound to el.
func (r *Runtime) Host(el dom.Node) (*Host, bool) {
	id, ok := r.byElm[el]
	if !ok {
		return nil, false
	}
	h, ok := r.hosts[id]
	return h, ok
}

// HostByID returns the host with id.
func (r *Runtime) HostByID(id HostID) (*Host, bool) {
	h, ok := r.hosts[id]
	return h, ok
}

// Hosts returns the live hosts ordered by id.
func (r *Runtime) Hosts() []*Host {
	out := make([]*Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// ConnectedCount returns the number of hosts connected over the runtime's
// lifetime.
func (r *Runtime) ConnectedCount() int { return r.connected }

// AppLoaded reports whether every top-level host has loaded.
func (r *Runtime) AppLoaded() bool { return r.appLoaded }

// OnAppLoad returns a task that resolves once every top-level host has
// loaded.
func (r *Runtime) OnAppLoad() *async.Task { return r.appTask }

// Styles returns the style content attached so far, keyed by style id.
func (r *Runtime) Styles() map[string]string {
	out := make(map[string]string, len(r.styles))
	for k, v := range r.styles {
		out[k] = v
	}
	return out
}

// BeginRelocation implements vdom.Relocator.
func (r *Runtime) BeginRelocation() { r.tmpDisconnected = true }

// EndRelocation implements vdom.Relocator.
func (r *Runtime) EndRelocation() { r.tmpDisconnected = false }

// content returns the captured slot content of a host element.
func (r *Runtime) content(el dom.Node) *vdom.SlotContent {
	if h, ok := r.Host(el); ok {
		return h.slots
	}
	return nil
}

// report converts a failure into a diagnostic.
func (r *Runtime) report(cat diag.Category, h *Host, err error) {
	tag := ""
	if h != nil {
		tag = h.desc.Tag
	}
	d := diag.New(cat, tag, err)
	r.reporter.Report(d)
	r.metrics.Diagnostic(string(cat), d.Level.String())
	r.log.Warn("component failure", "category", cat, "tag", tag, "error", err)
}

// checkApp fires the app load signal once no top-level host is loading.
func (r *Runtime) checkApp() {
	if r.appLoaded || r.connected == 0 || len(r.rootActive) > 0 {
		return
	}
	r.appLoaded = true
	r.log.Debug("app loaded", "hosts", r.connected)
	_ = r.appDone.Resolve(r.connected)
}

var (
	_ dom.ElementCallbacks = (*Runtime)(nil)
	_ vdom.PropSetter      = (*Runtime)(nil)
	_ vdom.Relocator       = (*Runtime)(nil)
)
