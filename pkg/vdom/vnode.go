package vdom

import "github.com/vango-dev/vessel/pkg/dom"

// SlotTag is the tag of slot placeholder nodes.
const SlotTag = "slot"

// Node is the lightweight description of an element, text node or slot
// placeholder. A Node with an empty Tag that is not text is the host root:
// its Elm is the host element itself.
type Node struct {
	Tag      string
	Text     string
	IsText   bool
	Children []*Node

	Attrs map[string]any
	Props map[string]any
	Class map[string]bool
	Style map[string]string
	On    map[string]any
	Key   string
	NS    string
	Ref   func(dom.Node)

	// SkipData and SkipChildren are fixed at creation and consulted only
	// when patching an update.
	SkipData     bool
	SkipChildren bool

	// Elm is set once, when the node is first materialised, and carried
	// forward to the matching node of every later patch.
	Elm dom.Node

	dispatch *dispatcher
	marks    []dom.Node
}

// IsSlot reports whether n is a slot placeholder.
func (n *Node) IsSlot() bool {
	return n != nil && !n.IsText && n.Tag == SlotTag
}

// SlotName returns the name attribute of a slot placeholder, or "" for the
// default slot.
func (n *Node) SlotName() string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	if name, ok := n.Attrs["name"].(string); ok {
		return name
	}
	return ""
}

// sameNode is the identity rule used by the child diff: tag and key must be
// equal; any two text nodes are the same.
func sameNode(a, b *Node) bool {
	if a.IsText || b.IsText {
		return a.IsText && b.IsText
	}
	return a.Tag == b.Tag && a.Key == b.Key
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// SlotContent holds the light-DOM nodes a host captured at connect time.
// The buckets are consumed by slot placeholders during patching.
type SlotContent struct {
	Default []dom.Node
	Named   map[string][]dom.Node

	// targets records where each slot was rendered.
	targets map[string]*slotTarget
}

// slotTarget is the location of a rendered slot: its parent, the sibling
// preceding its region (nil at the start) and any fallback rendered for
// an empty bucket.
type slotTarget struct {
	parent   dom.Node
	after    dom.Node
	fallback []*Node
}

// Add appends nodes to the bucket for a slot name.
func (s *SlotContent) Add(name string, nodes ...dom.Node) {
	if name == "" {
		s.Default = append(s.Default, nodes...)
		return
	}
	if s.Named == nil {
		s.Named = make(map[string][]dom.Node)
	}
	s.Named[name] = append(s.Named[name], nodes...)
}

func (s *SlotContent) setTarget(name string, t *slotTarget) {
	if s == nil {
		return
	}
	if s.targets == nil {
		s.targets = make(map[string]*slotTarget)
	}
	s.targets[name] = t
}

// Nodes returns the bucket for a slot name; "" selects the default slot.
func (s *SlotContent) Nodes(name string) []dom.Node {
	if s == nil {
		return nil
	}
	if name == "" {
		return s.Default
	}
	return s.Named[name]
}

// Len returns the total number of captured nodes.
func (s *SlotContent) Len() int {
	if s == nil {
		return 0
	}
	n := len(s.Default)
	for _, nodes := range s.Named {
		n += len(nodes)
	}
	return n
}
