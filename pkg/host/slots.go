package host

import (
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/vdom"
)

// captureSlots records the host's light-DOM children before the first
// render so the patcher can project them into slot placeholders.
func (r *Runtime) captureSlots(h *Host) *vdom.SlotContent {
	sc := &vdom.SlotContent{}
	for _, c := range r.doc.ChildNodes(h.elm) {
		sc.Add(r.slotName(h, c), c)
	}
	return sc
}

// projectAdded moves light-DOM children added after a render into their
// slots, keeping document order within each slot.
func (r *Runtime) projectAdded(h *Host, added []dom.Node) {
	if h.slots == nil {
		h.slots = &vdom.SlotContent{}
	}
	var names []string
	byName := make(map[string][]dom.Node)
	for _, c := range added {
		name := r.slotName(h, c)
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], c)
	}
	for _, name := range names {
		r.patcher.Project(h.slots, name, byName[name])
	}
	r.log.Debug("light DOM projected", "tag", h.desc.Tag, "id", h.id, "nodes", len(added))
}

// slotName returns the slot a light-DOM child belongs to; "" is the
// default slot.
func (r *Runtime) slotName(h *Host, c dom.Node) string {
	if h.desc.Slots == component.SlotsNamed && r.doc.NodeType(c) == dom.ElementNode {
		if name, ok := r.doc.Attribute(c, "slot"); ok {
			return name
		}
	}
	return ""
}

// SetText replaces the text of a host. For a host that projects its
// default slot, the projected content is replaced instead of the rendered
// tree.
func (r *Runtime) SetText(el dom.Node, text string) {
	r.patcher.SetProjectedText(el, text)
}

// Text returns the projected text of a host, or the element's text.
func (r *Runtime) Text(el dom.Node) string {
	if sc := r.content(el); sc != nil && len(sc.Default) > 0 {
		if p := r.doc.Parent(sc.Default[0]); p != nil && p != el {
			return r.doc.TextContent(p)
		}
	}
	return r.doc.TextContent(el)
}
