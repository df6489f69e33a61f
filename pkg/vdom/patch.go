package vdom

import (
	"strings"

	"github.com/vango-dev/vessel/pkg/dom"
)

// PropSetter receives element property writes. The runtime routes writes
// to component hosts through its member proxy; everything else goes to the
// platform.
type PropSetter interface {
	SetProp(el dom.Node, name string, v any)
}

// Relocator brackets the moves of projected slot content so the runtime
// can ignore the disconnect and connect reactions they trigger.
type Relocator interface {
	BeginRelocation()
	EndRelocation()
}

// PatchOptions configure a single Patch call.
type PatchOptions struct {
	// IsUpdate honours the SkipData and SkipChildren flags of new nodes.
	IsUpdate bool
	// Slots is the host's captured light-DOM content.
	Slots *SlotContent
	// SSRID stamps server render markers when non-zero.
	SSRID int
	// NativeSlots materialises slot placeholders as real <slot> elements
	// instead of relocating content.
	NativeSlots bool
}

// Patcher applies Node trees to a platform tree. A Patcher holds no
// per-call state and may be shared by every host of a runtime.
type Patcher struct {
	platform dom.Platform
	props    PropSetter
	reloc    Relocator
	content  func(el dom.Node) *SlotContent
}

// PatcherOption configures a Patcher.
type PatcherOption func(*Patcher)

// WithPropSetter routes property writes through ps.
func WithPropSetter(ps PropSetter) PatcherOption {
	return func(p *Patcher) { p.props = ps }
}

// WithRelocator brackets slot content moves with r.
func WithRelocator(r Relocator) PatcherOption {
	return func(p *Patcher) { p.reloc = r }
}

// WithContentLookup lets the patcher find the captured content of an
// element. When an element whose default slot holds text gets new text
// content, the text is written to the projected location instead.
func WithContentLookup(fn func(el dom.Node) *SlotContent) PatcherOption {
	return func(p *Patcher) { p.content = fn }
}

// NewPatcher creates a Patcher over platform.
func NewPatcher(platform dom.Platform, opts ...PatcherOption) *Patcher {
	p := &Patcher{platform: platform}
	for _, opt := range opts {
		opt(p)
	}
	if p.props == nil {
		p.props = platformProps{platform}
	}
	return p
}

type platformProps struct{ p dom.Platform }

func (pp platformProps) SetProp(el dom.Node, name string, v any) { pp.p.SetProperty(el, name, v) }

// Patch brings the platform tree under old.Elm in line with next and
// returns next with every Elm populated. old must already be bound to an
// element; for a first render pass &Node{Elm: host}.
func (p *Patcher) Patch(old, next *Node, opts PatchOptions) *Node {
	s := &session{p: p, dom: p.platform, opts: opts}
	if opts.SSRID > 0 && old.Elm != nil {
		want := itoa(opts.SSRID)
		if cur, ok := p.platform.Attribute(old.Elm, AttrHostID); !ok || cur != want {
			p.platform.SetAttribute(old.Elm, AttrHostID, want)
		}
	}
	s.patchNode(old, next, "")
	return next
}

// Destroy drops the listener bindings held by n and its descendants and
// clears their refs.
func (p *Patcher) Destroy(n *Node) {
	destroy(p.platform, n)
}

func destroy(platform dom.Platform, n *Node) {
	if n == nil {
		return
	}
	if n.dispatch != nil && n.Elm != nil {
		for _, name := range n.dispatch.names() {
			platform.RemoveEventListener(n.Elm, name, n.dispatch, dom.ListenerOptions{})
		}
		n.dispatch.events = nil
		n.dispatch.node = nil
	}
	if n.Ref != nil {
		n.Ref(nil)
	}
	for _, c := range n.Children {
		destroy(platform, c)
	}
}

// session carries the options of one Patch call through the recursion.
type session struct {
	p    *Patcher
	dom  dom.Platform
	opts PatchOptions
}

func (s *session) stamping() bool { return s.opts.SSRID > 0 }

func childNamespace(n *Node, parentNS string) string {
	switch {
	case n.NS != "":
		return n.NS
	case n.Tag == "svg":
		return dom.NamespaceSVG
	default:
		return parentNS
	}
}

func (s *session) createElm(n *Node, parentElm dom.Node, index int, parentNS string) dom.Node {
	if n.IsSlot() && !s.opts.NativeSlots {
		s.relocate(n, parentElm, parentNS)
		return nil
	}
	if n.IsText {
		n.Elm = s.dom.CreateText(n.Text)
		return n.Elm
	}

	ns := childNamespace(n, parentNS)
	var elm dom.Node
	if ns != "" {
		elm = s.dom.CreateElementNS(ns, n.Tag)
	} else {
		elm = s.dom.CreateElement(n.Tag)
	}
	n.Elm = elm
	s.updateElement(&Node{}, n)

	if s.stamping() {
		s.dom.SetAttribute(elm, AttrChildID, ChildID(s.opts.SSRID, index, len(n.Children) == 0))
	}

	childNS := ns
	if n.Tag == "foreignObject" {
		childNS = ""
	}
	for i, c := range n.Children {
		if c == nil {
			continue
		}
		if ce := s.createElm(c, elm, i, childNS); ce != nil {
			s.insert(elm, c, ce, nil, i)
		}
	}
	if n.Ref != nil {
		n.Ref(elm)
	}
	return elm
}

// relocate moves the captured content for a slot placeholder under
// parentElm. Fallback children render only when nothing other than
// comments was moved.
func (s *session) relocate(slot *Node, parentElm dom.Node, ns string) {
	name := slot.SlotName()
	nodes := s.opts.Slots.Nodes(name)

	s.p.beginRelocation()
	for _, n := range nodes {
		s.dom.Remove(n)
	}
	t := &slotTarget{parent: parentElm, after: lastChild(s.dom, parentElm)}
	hasContent := false
	for _, n := range nodes {
		s.dom.AppendChild(parentElm, n)
		if s.dom.NodeType(n) != dom.CommentNode {
			hasContent = true
		}
	}
	s.p.endRelocation()
	s.opts.Slots.setTarget(name, t)

	if hasContent {
		return
	}
	for i, c := range slot.Children {
		if c == nil {
			continue
		}
		if ce := s.createElm(c, parentElm, i, ns); ce != nil {
			s.insert(parentElm, c, ce, nil, i)
			t.fallback = append(t.fallback, c)
		}
	}
}

// Project adds nodes to the bucket for a slot name and moves them to where
// that slot was rendered, after the content already projected there.
// Fallback content rendered for the slot is removed once real content
// arrives. Nodes for a slot that was never rendered stay where they are.
func (p *Patcher) Project(sc *SlotContent, name string, nodes []dom.Node) {
	if sc == nil || len(nodes) == 0 {
		return
	}
	prev := sc.Nodes(name)
	sc.Add(name, nodes...)
	t := sc.targets[name]
	if t == nil {
		return
	}

	var ref dom.Node
	switch {
	case len(prev) > 0 && p.platform.Parent(prev[len(prev)-1]) == t.parent:
		ref = p.platform.NextSibling(prev[len(prev)-1])
	case len(t.fallback) > 0:
		ref = firstElm(t.fallback, 0)
	case t.after != nil && p.platform.Parent(t.after) == t.parent:
		ref = p.platform.NextSibling(t.after)
	case t.after == nil:
		if kids := p.platform.ChildNodes(t.parent); len(kids) > 0 {
			ref = kids[0]
		}
	}

	hasContent := false
	p.beginRelocation()
	for _, n := range nodes {
		if n == ref {
			ref = p.platform.NextSibling(n)
			continue
		}
		p.platform.InsertBefore(t.parent, n, ref)
		if p.platform.NodeType(n) != dom.CommentNode {
			hasContent = true
		}
	}
	p.endRelocation()

	if hasContent && len(t.fallback) > 0 {
		for _, f := range t.fallback {
			destroy(p.platform, f)
			p.platform.Remove(f.Elm)
			for _, m := range f.marks {
				p.platform.Remove(m)
			}
		}
		t.fallback = nil
	}
}

func (p *Patcher) beginRelocation() {
	if p.reloc != nil {
		p.reloc.BeginRelocation()
	}
}

func (p *Patcher) endRelocation() {
	if p.reloc != nil {
		p.reloc.EndRelocation()
	}
}

func lastChild(platform dom.Platform, n dom.Node) dom.Node {
	kids := platform.ChildNodes(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

// insert places elm before ref, wrapping text in marker comments when
// stamping.
func (s *session) insert(parentElm dom.Node, n *Node, elm, ref dom.Node, index int) {
	if s.stamping() && n.IsText {
		start := s.dom.CreateComment(TextStart(s.opts.SSRID, index))
		end := s.dom.CreateComment(TextEnd)
		s.dom.InsertBefore(parentElm, start, ref)
		s.dom.InsertBefore(parentElm, elm, ref)
		s.dom.InsertBefore(parentElm, end, ref)
		n.marks = []dom.Node{start, end}
		return
	}
	s.dom.InsertBefore(parentElm, elm, ref)
}

func (s *session) addNodes(parentElm, ref dom.Node, nodes []*Node, start, end int, ns string) {
	for i := start; i <= end; i++ {
		n := nodes[i]
		if n == nil {
			continue
		}
		if elm := s.createElm(n, parentElm, i, ns); elm != nil {
			s.insert(parentElm, n, elm, ref, i)
		}
	}
}

func (s *session) removeNodes(nodes []*Node, start, end int) {
	for i := start; i <= end; i++ {
		n := nodes[i]
		if n == nil || n.Elm == nil {
			continue
		}
		destroy(s.dom, n)
		s.dom.Remove(n.Elm)
		for _, m := range n.marks {
			s.dom.Remove(m)
		}
	}
}

func (s *session) patchNode(old, next *Node, parentNS string) {
	elm := old.Elm
	next.Elm = elm
	next.dispatch = old.dispatch
	next.marks = old.marks

	if next.IsSlot() && !s.opts.NativeSlots {
		return
	}
	if next.IsText {
		if old.Text != next.Text {
			s.dom.SetTextContent(elm, next.Text)
		}
		return
	}

	ns := childNamespace(next, parentNS)
	if s.opts.IsUpdate && next.SkipData {
		next.Attrs, next.Props, next.Class, next.Style, next.On = old.Attrs, old.Props, old.Class, old.Style, old.On
	} else {
		s.updateElement(old, next)
	}

	if s.opts.IsUpdate && next.SkipChildren {
		next.Children = old.Children
		return
	}
	childNS := ns
	if next.Tag == "foreignObject" {
		childNS = ""
	}
	switch {
	case len(old.Children) > 0 && len(next.Children) > 0:
		s.updateChildren(elm, old.Children, next.Children, childNS)
	case len(next.Children) > 0:
		s.addNodes(elm, nil, next.Children, 0, len(next.Children)-1, childNS)
	case len(old.Children) > 0:
		s.removeNodes(old.Children, 0, len(old.Children)-1)
	}
}

// SetProjectedText rewrites the text content of el. If el's default slot
// content has been projected elsewhere, the projection target receives the
// text, so the write never lands on the host's own light DOM.
func (p *Patcher) SetProjectedText(el dom.Node, text string) {
	if p.content != nil {
		if sc := p.content(el); sc != nil && len(sc.Default) > 0 {
			if target := p.platform.Parent(sc.Default[0]); target != nil && target != el {
				p.platform.SetTextContent(target, text)
				sc.Default = p.platform.ChildNodes(target)
				return
			}
		}
	}
	p.platform.SetTextContent(el, text)
}

func (s *session) updateChildren(parentElm dom.Node, oldCh, newCh []*Node, ns string) {
	oldCh = append([]*Node(nil), oldCh...)
	oldStart, oldEnd := 0, len(oldCh)-1
	newStart, newEnd := 0, len(newCh)-1
	var keyed map[string]int

	for oldStart <= oldEnd && newStart <= newEnd {
		switch {
		case oldCh[oldStart] == nil:
			oldStart++
		case oldCh[oldEnd] == nil:
			oldEnd--
		case newCh[newStart] == nil:
			newStart++
		case newCh[newEnd] == nil:
			newEnd--
		case sameNode(oldCh[oldStart], newCh[newStart]):
			s.patchNode(oldCh[oldStart], newCh[newStart], ns)
			oldStart++
			newStart++
		case sameNode(oldCh[oldEnd], newCh[newEnd]):
			s.patchNode(oldCh[oldEnd], newCh[newEnd], ns)
			oldEnd--
			newEnd--
		case sameNode(oldCh[oldStart], newCh[newEnd]):
			// Moved right: goes after the current old end.
			s.patchNode(oldCh[oldStart], newCh[newEnd], ns)
			if oldCh[oldStart].Elm != nil {
				var ref dom.Node
				if last := lastDOM(oldCh[oldEnd]); last != nil {
					ref = s.dom.NextSibling(last)
				}
				s.move(parentElm, oldCh[oldStart], ref)
			}
			oldStart++
			newEnd--
		case sameNode(oldCh[oldEnd], newCh[newStart]):
			// Moved left: goes before the current old start.
			s.patchNode(oldCh[oldEnd], newCh[newStart], ns)
			if oldCh[oldEnd].Elm != nil {
				s.move(parentElm, oldCh[oldEnd], firstElm(oldCh, oldStart))
			}
			oldEnd--
			newStart++
		default:
			if keyed == nil {
				keyed = make(map[string]int)
				for i := oldStart; i <= oldEnd; i++ {
					if c := oldCh[i]; c != nil && c.Key != "" {
						keyed[c.Key] = i
					}
				}
			}
			n := newCh[newStart]
			var elm dom.Node
			moved := false
			if idx, ok := keyed[n.Key]; ok && n.Key != "" && oldCh[idx] != nil && sameNode(oldCh[idx], n) {
				s.patchNode(oldCh[idx], n, ns)
				elm = oldCh[idx].Elm
				oldCh[idx] = nil
				moved = true
			} else {
				elm = s.createElm(n, parentElm, newStart, ns)
			}
			if elm != nil {
				ref := firstElm(oldCh, oldStart)
				if moved {
					s.move(parentElm, n, ref)
				} else {
					s.insert(parentElm, n, elm, ref, newStart)
				}
			}
			newStart++
		}
	}

	if oldStart > oldEnd {
		s.addNodes(parentElm, firstElm(newCh, newEnd+1), newCh, newStart, newEnd, ns)
	} else if newStart > newEnd {
		s.removeNodes(oldCh, oldStart, oldEnd)
	}
}

// move places n's element before ref, together with the markers of a
// stamped text node.
func (s *session) move(parentElm dom.Node, n *Node, ref dom.Node) {
	if len(n.marks) == 2 {
		s.dom.InsertBefore(parentElm, n.marks[0], ref)
		s.dom.InsertBefore(parentElm, n.Elm, ref)
		s.dom.InsertBefore(parentElm, n.marks[1], ref)
		return
	}
	s.dom.InsertBefore(parentElm, n.Elm, ref)
}

// lastDOM returns the last platform node belonging to n.
func lastDOM(n *Node) dom.Node {
	if n == nil {
		return nil
	}
	if len(n.marks) == 2 {
		return n.marks[1]
	}
	return n.Elm
}

// firstElm returns the first materialised element at or after from, or nil
// to append.
func firstElm(nodes []*Node, from int) dom.Node {
	for i := from; i < len(nodes); i++ {
		if n := nodes[i]; n != nil && n.Elm != nil {
			if len(n.marks) > 0 {
				return n.marks[0]
			}
			return n.Elm
		}
	}
	return nil
}

func (s *session) updateElement(old, next *Node) {
	elm := next.Elm

	for _, k := range sortedKeys(old.Attrs) {
		if _, ok := next.Attrs[k]; !ok {
			s.setAttr(elm, k, nil)
		}
	}
	for _, k := range sortedKeys(next.Attrs) {
		nv := next.Attrs[k]
		if ov, had := old.Attrs[k]; had && valuesEqual(ov, nv) {
			continue
		}
		s.setAttr(elm, k, nv)
	}

	for _, k := range sortedKeys(old.Class) {
		if old.Class[k] && !next.Class[k] {
			s.dom.RemoveClass(elm, k)
		}
	}
	for _, k := range sortedKeys(next.Class) {
		if next.Class[k] && !old.Class[k] {
			s.dom.AddClass(elm, k)
		}
	}

	for _, k := range sortedKeys(old.Style) {
		if v, ok := next.Style[k]; !ok || v == "" {
			s.dom.RemoveStyle(elm, k)
		}
	}
	for _, k := range sortedKeys(next.Style) {
		v := next.Style[k]
		if v != "" && old.Style[k] != v {
			s.dom.SetStyle(elm, k, v)
		}
	}

	// Properties are never deleted; an explicit nil clears one.
	for _, k := range sortedKeys(next.Props) {
		nv := next.Props[k]
		if ov, had := old.Props[k]; had && valuesEqual(ov, nv) {
			continue
		}
		s.p.props.SetProp(elm, k, nv)
	}

	s.updateListeners(next)
}

func (s *session) setAttr(elm dom.Node, name string, v any) {
	ns, local := attrNamespace(name)
	remove := v == nil
	value := ""
	if IsBooleanAttr(local) && ns == "" {
		switch b := v.(type) {
		case bool:
			remove = !b
		case string:
			remove = b == "false"
		}
	} else if !remove {
		value = valueString(v)
	}

	switch {
	case remove && ns != "":
		s.dom.RemoveAttributeNS(elm, ns, local)
	case remove:
		s.dom.RemoveAttribute(elm, name)
	case ns != "":
		s.dom.SetAttributeNS(elm, ns, local, value)
	default:
		s.dom.SetAttribute(elm, name, value)
	}
}

// attrNamespace maps xlink: and xml: prefixed names to their namespaces.
func attrNamespace(name string) (ns, local string) {
	switch {
	case strings.HasPrefix(name, "xlink:"):
		return dom.NamespaceXLink, name[len("xlink:"):]
	case strings.HasPrefix(name, "xml:"):
		return dom.NamespaceXML, name[len("xml:"):]
	default:
		return "", name
	}
}

// updateListeners keeps one dispatcher per element. Registrations change
// only when the set of event names changes; handler swaps are picked up by
// re-pointing the dispatcher at the new node.
func (s *session) updateListeners(next *Node) {
	d := next.dispatch
	if d == nil {
		if len(next.On) == 0 {
			return
		}
		d = &dispatcher{events: make(map[string]bool)}
		next.dispatch = d
	}
	d.node = next
	for _, name := range d.names() {
		if _, ok := next.On[name]; !ok {
			s.dom.RemoveEventListener(next.Elm, name, d, dom.ListenerOptions{})
			delete(d.events, name)
		}
	}
	for _, name := range sortedKeys(next.On) {
		if !d.events[name] {
			s.dom.AddEventListener(next.Elm, name, d, dom.ListenerOptions{})
			d.events[name] = true
		}
	}
}

func itoa(n int) string {
	s, _ := primitive(n)
	return s
}
