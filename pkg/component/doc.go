// Package component describes component types to the runtime.
//
// A Descriptor is created once per component type and is read-only after
// it has been defined in a Registry. It carries the tag name, the member
// table that drives the property proxy, event and listener declarations,
// style ids per rendering mode and the slot classification.
//
// Members are built with the typed helpers so that the runtime never needs
// reflection to reach instance fields:
//
//	type Counter struct{ Count int; Label string }
//
//	desc := &component.Descriptor{
//	    Tag: "x-counter",
//	    New: func() any { return &Counter{} },
//	    Members: []component.Member{
//	        component.Prop("label", func(c *Counter) *string { return &c.Label }),
//	        component.State("count", func(c *Counter) *int { return &c.Count }),
//	    },
//	}
//
// Lifecycle hooks are optional interfaces the instance may implement:
// WillLoader, DidLoader, WillUpdater, DidUpdater and Unloader. Renderer is
// required for components that produce output.
package component
