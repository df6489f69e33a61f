package host

import (
	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/vdom"
)

// HostID addresses a Host in the runtime's arena. Zero is "no host".
type HostID uint32

// State is a host's lifecycle state.
type State uint8

const (
	StateUnconnected State = iota
	StateConnecting
	StateInstantiating
	StateRendering
	StateLoaded
	StateUpdating
	StateDisconnected
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "Unconnected"
	case StateConnecting:
		return "Connecting"
	case StateInstantiating:
		return "Instantiating"
	case StateRendering:
		return "Rendering"
	case StateLoaded:
		return "Loaded"
	case StateUpdating:
		return "Updating"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Host is the runtime record of one host element.
type Host struct {
	id    HostID
	rt    *Runtime
	elm   dom.Node
	desc  *component.Descriptor
	state State

	connected bool
	destroyed bool
	rendered  bool
	loaded    bool
	failed    bool

	instance any
	values   map[string]any
	vnode    *vdom.Node
	ssrID    int

	ancestor HostID
	active   map[HostID]bool

	willLoadPending   bool
	willUpdatePending bool
	updateQueued      bool
	renders           int

	ready    *async.Task
	readyRes *async.Resolver
	onRender []func()

	slots     *vdom.SlotContent
	queued    []queuedEvent
	listeners []*hostListener
	stopWatch func()
	// light is the host's child list as the last render left it.
	light map[dom.Node]bool
}

// ID returns the host's arena id.
func (h *Host) ID() HostID { return h.id }

// Element returns the host element.
func (h *Host) Element() dom.Node { return h.elm }

// Descriptor returns the host's component descriptor.
func (h *Host) Descriptor() *component.Descriptor { return h.desc }

// Tag returns the host's tag name.
func (h *Host) Tag() string { return h.desc.Tag }

// State returns the lifecycle state.
func (h *Host) State() State { return h.state }

// Instance returns the component instance, or nil.
func (h *Host) Instance() any { return h.instance }

// Rendered reports whether the host has rendered at least once.
func (h *Host) Rendered() bool { return h.rendered }

// Loaded reports whether the host and its descendants have loaded.
func (h *Host) Loaded() bool { return h.loaded }

// Failed reports whether the host gave up before creating an instance.
func (h *Host) Failed() bool { return h.failed }

// Destroyed reports whether the host has been torn down.
func (h *Host) Destroyed() bool { return h.destroyed }

// SSRID returns the server render id, or zero.
func (h *Host) SSRID() int { return h.ssrID }

// Renders returns how many times the host has rendered.
func (h *Host) Renders() int { return h.renders }

// Ancestor returns the id of the ancestor the host registered with.
func (h *Host) Ancestor() HostID { return h.ancestor }

// ActiveDescendants returns how many registered descendants are still
// loading.
func (h *Host) ActiveDescendants() int { return len(h.active) }

// Slots returns the captured light-DOM content.
func (h *Host) Slots() *vdom.SlotContent { return h.slots }

// Tree returns the last rendered tree.
func (h *Host) Tree() *vdom.Node { return h.vnode }

// handle is the component.Host given to instances.
type handle struct{ h *Host }

func (hd handle) Element() dom.Node { return hd.h.elm }
func (hd handle) Tag() string       { return hd.h.desc.Tag }
func (hd handle) ForceUpdate()      { hd.h.rt.queueUpdate(hd.h) }

func (hd handle) Get(name string) any {
	return hd.h.rt.get(hd.h, name)
}

func (hd handle) Set(name string, v any) {
	if m, ok := hd.h.desc.Member(name); ok && m.Kind.Reactive() {
		hd.h.rt.setValue(hd.h, m, v)
	}
}

func (hd handle) Emit(event string, detail any) *dom.Event {
	return hd.h.rt.emit(hd.h, event, detail)
}

var _ component.Host = handle{}
