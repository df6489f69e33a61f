package vdom

import (
	"sort"

	"github.com/vango-dev/vessel/pkg/dom"
)

// dispatcher is the single platform listener bound to an element. It
// forwards each event to the handler of the node it currently points at.
type dispatcher struct {
	node   *Node
	events map[string]bool
}

func (d *dispatcher) names() []string {
	names := make([]string, 0, len(d.events))
	for name := range d.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleEvent implements dom.Listener.
func (d *dispatcher) HandleEvent(ev *dom.Event) {
	if d.node == nil {
		return
	}
	switch fn := d.node.On[ev.Type].(type) {
	case func(*dom.Event):
		fn(ev)
	case func():
		fn()
	case Bound:
		if fn.Fn != nil {
			fn.Fn(ev, fn.Args...)
		}
	}
}
