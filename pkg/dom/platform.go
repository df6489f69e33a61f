package dom

// Node is an opaque handle to a platform node. Only the Platform that
// produced a Node may interpret it.
type Node any

// NodeType mirrors the DOM nodeType constants.
type NodeType uint8

const (
	UnknownNode  NodeType = 0
	ElementNode  NodeType = 1
	TextNode     NodeType = 3
	CommentNode  NodeType = 8
	DocumentNode NodeType = 9
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case DocumentNode:
		return "Document"
	default:
		return "Unknown"
	}
}

// Well-known namespace URIs.
const (
	NamespaceHTML  = "http://www.w3.org/1999/xhtml"
	NamespaceSVG   = "http://www.w3.org/2000/svg"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
)

// ListenerOptions are the registration flags of an event listener.
type ListenerOptions struct {
	Capture bool
	Passive bool
}

// Listener receives dispatched events. Implementations must be comparable
// (pointer types) so that they can be removed again.
type Listener interface {
	HandleEvent(ev *Event)
}

// ElementCallbacks receives custom element reactions for a defined tag.
type ElementCallbacks interface {
	Connected(n Node)
	Disconnected(n Node)
	// AttributeChanged reports an attribute mutation. A nil value means the
	// attribute was absent.
	AttributeChanged(n Node, name string, old, new *string)
}

// Platform is the complete set of document operations available to the
// runtime.
type Platform interface {
	CreateElement(tag string) Node
	CreateElementNS(ns, tag string) Node
	CreateText(text string) Node
	CreateComment(text string) Node

	// InsertBefore inserts child before ref under parent. A nil ref appends.
	// An attached child is moved, never recreated.
	InsertBefore(parent, child, ref Node)
	AppendChild(parent, child Node)
	// Remove detaches n from its parent.
	Remove(n Node)

	Parent(n Node) Node
	NextSibling(n Node) Node
	ChildNodes(n Node) []Node
	NodeType(n Node) NodeType
	TagName(n Node) string
	IsConnected(n Node) bool

	Attribute(n Node, name string) (string, bool)
	SetAttribute(n Node, name, value string)
	SetAttributeNS(n Node, ns, name, value string)
	RemoveAttribute(n Node, name string)
	RemoveAttributeNS(n Node, ns, name string)

	AddClass(n Node, name string)
	RemoveClass(n Node, name string)
	SetStyle(n Node, prop, value string)
	RemoveStyle(n Node, prop string)

	TextContent(n Node) string
	SetTextContent(n Node, text string)

	Property(n Node, name string) (any, bool)
	SetProperty(n Node, name string, v any)

	AddEventListener(n Node, event string, l Listener, opts ListenerOptions)
	RemoveEventListener(n Node, event string, l Listener, opts ListenerOptions)
	// Dispatch delivers ev to n and returns false if a listener cancelled it.
	Dispatch(n Node, ev *Event) bool

	Body() Node
	Head() Node
	// FindByTag returns the first element with the tag in document order.
	FindByTag(tag string) Node
}

// Definer is implemented by platforms that support custom element
// definitions.
type Definer interface {
	Define(tag string, cb ElementCallbacks)
}
