package registry

import (
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/vdom"
)

type counter struct {
	Count    float64
	Step     float64
	Disabled bool
	Changed  component.Emitter

	host component.Host
}

func (c *counter) BindHost(h component.Host) { c.host = h }

func (c *counter) Render() *vdom.Node {
	return vdom.Root(
		vdom.Button(
			vdom.Class("counter"),
			vdom.Type("button"),
			vdom.Disabled(c.Disabled),
			vdom.Textf("%g", c.Count),
		),
	)
}

// increment adds Step, or one when Step is zero, and reports the new count.
func (c *counter) increment() float64 {
	if c.Disabled {
		return c.Count
	}
	step := c.Step
	if step == 0 {
		step = 1
	}
	c.host.Set("count", c.Count+step)
	if c.Changed != nil {
		c.Changed.Emit(c.Count)
	}
	return c.Count
}

func counterDescriptor() *component.Descriptor {
	return &component.Descriptor{
		Tag: "x-counter",
		Members: []component.Member{
			component.MutableProp[counter, float64]("count", func(c *counter) *float64 { return &c.Count }),
			component.Prop[counter, float64]("step", func(c *counter) *float64 { return &c.Step }),
			component.Prop[counter, bool]("disabled", func(c *counter) *bool { return &c.Disabled }),
			component.Method[counter]("increment", func(c *counter, _ ...any) (any, error) {
				return c.increment(), nil
			}),
		},
		Events: []component.EventDescriptor{
			component.Event[counter]("count-changed", func(c *counter) *component.Emitter { return &c.Changed }),
		},
		Listeners: []component.ListenerDescriptor{
			component.Listen[counter]("click", func(c *counter, _ *dom.Event) error {
				c.increment()
				return nil
			}),
		},
		Styles: map[string]string{"": "sc-x-counter"},
		Module: "modules/x-counter.js",
		New:    func() any { return &counter{} },
	}
}
