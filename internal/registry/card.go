package registry

import (
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/vdom"
)

type card struct {
	Heading string
}

func (c *card) Render() *vdom.Node {
	return vdom.Root(
		vdom.Div(vdom.Class("card-header"), vdom.Slot("header", c.Heading)),
		vdom.Div(vdom.Class("card-body"), vdom.Slot("")),
		vdom.Div(vdom.Class("card-footer"), vdom.Slot("footer")),
	)
}

func cardDescriptor() *component.Descriptor {
	return &component.Descriptor{
		Tag: "x-card",
		Members: []component.Member{
			component.Prop[card, string]("heading", func(c *card) *string { return &c.Heading }),
		},
		Styles: map[string]string{"": "sc-x-card"},
		Slots:  component.SlotsNamed,
		New:    func() any { return &card{} },
	}
}
