package dom

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Stats counts the mutations applied to a Document.
type Stats struct {
	Created      int // elements, text and comment nodes created
	Inserted     int // detached nodes inserted
	Moved        int // attached nodes repositioned
	Removed      int // nodes detached
	AttrSet      int
	AttrRemoved  int
	ClassChanged int
	StyleChanged int
	TextSet      int
	Listeners    int // listener registrations added or removed
}

// Mutations returns the number of structural and attribute mutations.
// Listener registrations are not mutations of the tree.
func (s Stats) Mutations() int {
	return s.Created + s.Inserted + s.Moved + s.Removed + s.AttrSet +
		s.AttrRemoved + s.ClassChanged + s.StyleChanged + s.TextSet
}

// Document is an emulated document over an *html.Node tree.
// It is not safe for concurrent use.
type Document struct {
	root      *html.Node
	url       *url.URL
	defs      map[string]ElementCallbacks
	props     map[*html.Node]map[string]any
	listeners map[*html.Node][]registration
	stats     Stats
}

// Parse parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return newDocument(root), nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument returns an empty document with html, head and body elements.
func NewDocument() *Document {
	doc, _ := ParseString("<!DOCTYPE html><html><head></head><body></body></html>")
	return doc
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		defs:      make(map[string]ElementCallbacks),
		props:     make(map[*html.Node]map[string]any),
		listeners: make(map[*html.Node][]registration),
	}
}

// Root returns the document node.
func (d *Document) Root() Node { return d.root }

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() Node {
	return wrap(firstElementChild(d.root, "html"))
}

func (d *Document) Head() Node {
	if h := firstElementChild(firstElementChild(d.root, "html"), "head"); h != nil {
		return h
	}
	return nil
}

func (d *Document) Body() Node {
	if b := firstElementChild(firstElementChild(d.root, "html"), "body"); b != nil {
		return b
	}
	return nil
}

// URL returns the document URL, or nil.
func (d *Document) URL() *url.URL { return d.url }

// SetURL sets the document URL.
func (d *Document) SetURL(u *url.URL) { d.url = u }

// Stats returns the mutation counters.
func (d *Document) Stats() Stats { return d.stats }

// ResetStats zeroes the mutation counters.
func (d *Document) ResetStats() { d.stats = Stats{} }

// Define registers element callbacks for a tag. Elements already in the
// document are not connected retroactively.
func (d *Document) Define(tag string, cb ElementCallbacks) {
	d.defs[strings.ToLower(tag)] = cb
}

// Defined reports whether the tag has been defined.
func (d *Document) Defined(tag string) bool {
	_, ok := d.defs[strings.ToLower(tag)]
	return ok
}

// Render writes the serialized document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String returns the serialized document.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// OuterHTML serializes a single node.
func (d *Document) OuterHTML(n Node) string {
	h := d.node(n)
	if h == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, h); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML serializes the children of a node.
func (d *Document) InnerHTML(n Node) string {
	h := d.node(n)
	if h == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// HTMLNode exposes the underlying node for post-processing passes.
func (d *Document) HTMLNode(n Node) *html.Node { return d.node(n) }

func (d *Document) node(n Node) *html.Node {
	h, _ := n.(*html.Node)
	return h
}

// wrap keeps a nil *html.Node from becoming a non-nil Node.
func wrap(h *html.Node) Node {
	if h == nil {
		return nil
	}
	return h
}

func firstElementChild(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

func (d *Document) CreateElement(tag string) Node {
	tag = strings.ToLower(tag)
	d.stats.Created++
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func (d *Document) CreateElementNS(ns, tag string) Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	switch ns {
	case NamespaceSVG:
		n.Namespace = "svg"
	case "", NamespaceHTML:
		n.Data = strings.ToLower(tag)
		n.DataAtom = atom.Lookup([]byte(n.Data))
	default:
		n.Namespace = ns
	}
	d.stats.Created++
	return n
}

func (d *Document) CreateText(text string) Node {
	d.stats.Created++
	return &html.Node{Type: html.TextNode, Data: text}
}

func (d *Document) CreateComment(text string) Node {
	d.stats.Created++
	return &html.Node{Type: html.CommentNode, Data: text}
}

// ---------------------------------------------------------------------------
// Tree mutation
// ---------------------------------------------------------------------------

func (d *Document) InsertBefore(parent, child, ref Node) {
	p, c, r := d.node(parent), d.node(child), d.node(ref)
	if p == nil || c == nil || c == r {
		return
	}
	if r != nil && r.Parent != p {
		r = nil
	}

	moved := false
	wasConnected := false
	if c.Parent != nil {
		if c.Parent == p && c.NextSibling == r {
			// Already in position.
			return
		}
		wasConnected = d.connected(c)
		c.Parent.RemoveChild(c)
		moved = true
	}

	p.InsertBefore(c, r)
	if moved {
		d.stats.Moved++
	} else {
		d.stats.Inserted++
	}

	if wasConnected {
		d.fire(c, false)
	}
	if d.connected(p) {
		d.fire(c, true)
	}
}

func (d *Document) AppendChild(parent, child Node) {
	d.InsertBefore(parent, child, nil)
}

func (d *Document) Remove(n Node) {
	c := d.node(n)
	if c == nil || c.Parent == nil {
		return
	}
	wasConnected := d.connected(c)
	c.Parent.RemoveChild(c)
	d.stats.Removed++
	if wasConnected {
		d.fire(c, false)
	}
}

// fire delivers connected or disconnected reactions to every defined
// element in the subtree, in document order.
func (d *Document) fire(n *html.Node, connected bool) {
	if len(d.defs) == 0 {
		return
	}
	var targets []*html.Node
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode {
			if _, ok := d.defs[x.Data]; ok {
				targets = append(targets, x)
			}
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	for _, t := range targets {
		cb := d.defs[t.Data]
		if connected {
			cb.Connected(t)
		} else {
			cb.Disconnected(t)
		}
	}
}

func (d *Document) connected(n *html.Node) bool {
	for x := n; x != nil; x = x.Parent {
		if x == d.root {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Traversal
// ---------------------------------------------------------------------------

func (d *Document) Parent(n Node) Node {
	h := d.node(n)
	if h == nil {
		return nil
	}
	return wrap(h.Parent)
}

func (d *Document) NextSibling(n Node) Node {
	h := d.node(n)
	if h == nil {
		return nil
	}
	return wrap(h.NextSibling)
}

func (d *Document) ChildNodes(n Node) []Node {
	h := d.node(n)
	if h == nil {
		return nil
	}
	var out []Node
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func (d *Document) NodeType(n Node) NodeType {
	h := d.node(n)
	if h == nil {
		return UnknownNode
	}
	switch h.Type {
	case html.ElementNode:
		return ElementNode
	case html.TextNode:
		return TextNode
	case html.CommentNode:
		return CommentNode
	case html.DocumentNode:
		return DocumentNode
	default:
		return UnknownNode
	}
}

func (d *Document) TagName(n Node) string {
	h := d.node(n)
	if h == nil || h.Type != html.ElementNode {
		return ""
	}
	return h.Data
}

func (d *Document) IsConnected(n Node) bool {
	h := d.node(n)
	return h != nil && d.connected(h)
}

func (d *Document) FindByTag(tag string) Node {
	tag = strings.ToLower(tag)
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(x *html.Node) bool {
		if x.Type == html.ElementNode && x.Data == tag {
			found = x
			return true
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return wrap(found)
}

// ElementsByTag returns every element with the tag in document order.
func (d *Document) ElementsByTag(tag string) []Node {
	tag = strings.ToLower(tag)
	var out []Node
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode && x.Data == tag {
			out = append(out, x)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

func (d *Document) Attribute(n Node, name string) (string, bool) {
	return attr(d.node(n), "", name)
}

func attr(h *html.Node, ns, name string) (string, bool) {
	if h == nil {
		return "", false
	}
	for _, a := range h.Attr {
		if a.Namespace == ns && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (d *Document) SetAttribute(n Node, name, value string) {
	d.setAttr(d.node(n), "", strings.ToLower(name), value)
}

func (d *Document) SetAttributeNS(n Node, ns, name, value string) {
	d.setAttr(d.node(n), nsPrefix(ns), localName(name), value)
}

func (d *Document) RemoveAttribute(n Node, name string) {
	d.removeAttr(d.node(n), "", strings.ToLower(name))
}

func (d *Document) RemoveAttributeNS(n Node, ns, name string) {
	d.removeAttr(d.node(n), nsPrefix(ns), localName(name))
}

func (d *Document) setAttr(h *html.Node, ns, name, value string) {
	if h == nil || h.Type != html.ElementNode {
		return
	}
	var old *string
	found := false
	for i := range h.Attr {
		if h.Attr[i].Namespace == ns && h.Attr[i].Key == name {
			if h.Attr[i].Val == value {
				return
			}
			prev := h.Attr[i].Val
			old = &prev
			h.Attr[i].Val = value
			found = true
			break
		}
	}
	if !found {
		h.Attr = append(h.Attr, html.Attribute{Namespace: ns, Key: name, Val: value})
	}
	d.stats.AttrSet++
	if ns == "" {
		d.attributeChanged(h, name, old, &value)
	}
}

func (d *Document) removeAttr(h *html.Node, ns, name string) {
	if h == nil {
		return
	}
	for i, a := range h.Attr {
		if a.Namespace == ns && a.Key == name {
			old := a.Val
			h.Attr = append(h.Attr[:i:i], h.Attr[i+1:]...)
			d.stats.AttrRemoved++
			if ns == "" {
				d.attributeChanged(h, name, &old, nil)
			}
			return
		}
	}
}

func (d *Document) attributeChanged(h *html.Node, name string, old, value *string) {
	if cb, ok := d.defs[h.Data]; ok {
		cb.AttributeChanged(h, name, old, value)
	}
}

func nsPrefix(ns string) string {
	switch ns {
	case NamespaceXLink:
		return "xlink"
	case NamespaceXML:
		return "xml"
	default:
		return ns
	}
}

func localName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ---------------------------------------------------------------------------
// Class and style
// ---------------------------------------------------------------------------

func (d *Document) AddClass(n Node, name string) {
	h := d.node(n)
	if h == nil || name == "" {
		return
	}
	current, _ := attr(h, "", "class")
	tokens := strings.Fields(current)
	for _, t := range tokens {
		if t == name {
			return
		}
	}
	tokens = append(tokens, name)
	d.writeRaw(h, "class", strings.Join(tokens, " "))
	d.stats.ClassChanged++
}

func (d *Document) RemoveClass(n Node, name string) {
	h := d.node(n)
	if h == nil {
		return
	}
	current, ok := attr(h, "", "class")
	if !ok {
		return
	}
	tokens := strings.Fields(current)
	kept := tokens[:0]
	for _, t := range tokens {
		if t != name {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(strings.Fields(current)) {
		return
	}
	d.writeRaw(h, "class", strings.Join(kept, " "))
	d.stats.ClassChanged++
}

// HasClass reports whether the element carries the class.
func (d *Document) HasClass(n Node, name string) bool {
	current, _ := attr(d.node(n), "", "class")
	for _, t := range strings.Fields(current) {
		if t == name {
			return true
		}
	}
	return false
}

type declaration struct {
	prop, value string
}

func parseStyle(s string) []declaration {
	var out []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}

func (d *Document) SetStyle(n Node, prop, value string) {
	h := d.node(n)
	if h == nil || prop == "" {
		return
	}
	current, _ := attr(h, "", "style")
	decls := parseStyle(current)
	found := false
	for i := range decls {
		if decls[i].prop == prop {
			if decls[i].value == value {
				return
			}
			decls[i].value = value
			found = true
		}
	}
	if !found {
		decls = append(decls, declaration{prop: prop, value: value})
	}
	d.writeRaw(h, "style", formatStyle(decls))
	d.stats.StyleChanged++
}

func (d *Document) RemoveStyle(n Node, prop string) {
	h := d.node(n)
	if h == nil {
		return
	}
	current, ok := attr(h, "", "style")
	if !ok {
		return
	}
	decls := parseStyle(current)
	kept := decls[:0]
	for _, decl := range decls {
		if decl.prop != prop {
			kept = append(kept, decl)
		}
	}
	if len(kept) == len(parseStyle(current)) {
		return
	}
	d.writeRaw(h, "style", formatStyle(kept))
	d.stats.StyleChanged++
}

// Style returns the value of an inline style property.
func (d *Document) Style(n Node, prop string) (string, bool) {
	current, _ := attr(d.node(n), "", "style")
	for _, decl := range parseStyle(current) {
		if decl.prop == prop {
			return decl.value, true
		}
	}
	return "", false
}

// writeRaw sets an attribute without counting it or notifying definitions.
func (d *Document) writeRaw(h *html.Node, name, value string) {
	for i := range h.Attr {
		if h.Attr[i].Namespace == "" && h.Attr[i].Key == name {
			if value == "" {
				h.Attr = append(h.Attr[:i:i], h.Attr[i+1:]...)
			} else {
				h.Attr[i].Val = value
			}
			return
		}
	}
	if value != "" {
		h.Attr = append(h.Attr, html.Attribute{Key: name, Val: value})
	}
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func (d *Document) TextContent(n Node) string {
	h := d.node(n)
	if h == nil {
		return ""
	}
	if h.Type == html.TextNode || h.Type == html.CommentNode {
		return h.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			} else if c.Type == html.ElementNode {
				walk(c)
			}
		}
	}
	walk(h)
	return b.String()
}

func (d *Document) SetTextContent(n Node, text string) {
	h := d.node(n)
	if h == nil {
		return
	}
	switch h.Type {
	case html.TextNode, html.CommentNode:
		if h.Data == text {
			return
		}
		h.Data = text
	case html.ElementNode:
		if h.FirstChild == nil && text == "" {
			return
		}
		if c := h.FirstChild; c != nil && c == h.LastChild && c.Type == html.TextNode && c.Data == text {
			return
		}
		for c := h.FirstChild; c != nil; {
			next := c.NextSibling
			d.Remove(c)
			c = next
		}
		if text != "" {
			h.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		}
	default:
		return
	}
	d.stats.TextSet++
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func (d *Document) Property(n Node, name string) (any, bool) {
	props := d.props[d.node(n)]
	if props == nil {
		return nil, false
	}
	v, ok := props[name]
	return v, ok
}

func (d *Document) SetProperty(n Node, name string, v any) {
	h := d.node(n)
	if h == nil {
		return
	}
	props := d.props[h]
	if props == nil {
		props = make(map[string]any)
		d.props[h] = props
	}
	if v == nil {
		delete(props, name)
		return
	}
	props[name] = v
}

var _ Platform = (*Document)(nil)
var _ Definer = (*Document)(nil)
