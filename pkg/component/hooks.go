package component

import (
	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/vdom"
)

// Renderer produces the component's tree. Returning a node with an empty
// tag renders onto the host element itself; any other node becomes the
// single child of the host.
type Renderer interface {
	Render() *vdom.Node
}

// WillLoader runs before the first render. A pending task suspends the
// render until it settles.
type WillLoader interface {
	WillLoad() *async.Task
}

// DidLoader runs once, after the component and all of its descendants
// have loaded.
type DidLoader interface {
	DidLoad() error
}

// WillUpdater runs before every re-render.
type WillUpdater interface {
	WillUpdate() *async.Task
}

// DidUpdater runs after every re-render.
type DidUpdater interface {
	DidUpdate() error
}

// Unloader runs when the host is removed from the document.
type Unloader interface {
	DidUnload() error
}

// Host is the instance's handle on its host element.
type Host interface {
	Element() dom.Node
	Tag() string
	// Get reads a member value.
	Get(name string) any
	// Set writes a member value through the change path: unchanged values
	// are ignored, changed values schedule one update.
	Set(name string, v any)
	// ForceUpdate schedules a re-render without a member change.
	ForceUpdate()
	// Emit dispatches an event from the host element.
	Emit(event string, detail any) *dom.Event
}

// HostBinder receives the host handle right after construction.
type HostBinder interface {
	BindHost(h Host)
}
