package host

import "github.com/vango-dev/vessel/pkg/component"

// AttrStyleID marks style elements attached by the runtime.
const AttrStyleID = "sty-id"

// attachStyle adds a bundle's style to the document head once per style
// id.
func (r *Runtime) attachStyle(b *component.Bundle) {
	if b.StyleID == "" || b.Style == "" {
		return
	}
	if _, ok := r.styles[b.StyleID]; ok {
		return
	}
	r.styles[b.StyleID] = b.Style

	head := r.doc.Head()
	if head == nil {
		return
	}
	el := r.doc.CreateElement("style")
	r.doc.SetAttribute(el, AttrStyleID, b.StyleID)
	r.doc.AppendChild(el, r.doc.CreateText(b.Style))
	r.doc.AppendChild(head, el)
}
