package vdom

import "github.com/vango-dev/vessel/pkg/dom"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element with the given tag. Arguments can be: nil, Attr,
// []Attr, PropArg, StyleArg, EventHandler, *Data, or anything H accepts as
// a child.
func El(tag string, args ...any) *Node {
	return createElement(tag, args)
}

func createElement(tag string, args []any) *Node {
	var data *Data
	ensure := func() *Data {
		if data == nil {
			data = &Data{}
		}
		return data
	}

	children := make([]any, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			applyAttr(ensure, v)
		case []Attr:
			for _, a := range v {
				applyAttr(ensure, a)
			}
		case PropArg:
			d := ensure()
			if d.Props == nil {
				d.Props = make(map[string]any)
			}
			d.Props[v.Name] = v.Value
		case StyleArg:
			d := ensure()
			if d.Style == nil {
				d.Style = make(map[string]string)
			}
			d.Style[v.Prop] = v.Value
		case EventHandler:
			d := ensure()
			if d.On == nil {
				d.On = make(map[string]any)
			}
			d.On[v.Event] = v.Handler
		case *Data:
			if v != nil {
				merge(ensure(), v)
			}
		default:
			children = append(children, v)
		}
	}

	n := H(tag, data, children...)
	if tag == "svg" && n.NS == "" {
		n.NS = dom.NamespaceSVG
	}
	return n
}

func applyAttr(ensure func() *Data, a Attr) {
	if a.Key == "" {
		return
	}
	d := ensure()
	switch a.Key {
	case "key":
		if s, ok := a.Value.(string); ok {
			d.Key = s
		}
	case "class":
		s, _ := a.Value.(string)
		for c := range classSet(s) {
			if d.Class == nil {
				d.Class = make(map[string]bool)
			}
			d.Class[c] = true
		}
	default:
		if d.Attrs == nil {
			d.Attrs = make(map[string]any)
		}
		d.Attrs[a.Key] = a.Value
	}
}

func merge(dst, src *Data) {
	for k, v := range src.Attrs {
		if dst.Attrs == nil {
			dst.Attrs = make(map[string]any)
		}
		dst.Attrs[k] = v
	}
	for k, v := range src.Props {
		if dst.Props == nil {
			dst.Props = make(map[string]any)
		}
		dst.Props[k] = v
	}
	for k, v := range src.Class {
		if dst.Class == nil {
			dst.Class = make(map[string]bool)
		}
		dst.Class[k] = v
	}
	for k, v := range src.Style {
		if dst.Style == nil {
			dst.Style = make(map[string]string)
		}
		dst.Style[k] = v
	}
	for k, v := range src.On {
		if dst.On == nil {
			dst.On = make(map[string]any)
		}
		dst.On[k] = v
	}
	if src.Key != "" {
		dst.Key = src.Key
	}
	if src.NS != "" {
		dst.NS = src.NS
	}
	if src.Ref != nil {
		dst.Ref = src.Ref
	}
	if src.Skip != SkipDefault {
		dst.Skip = src.Skip
	}
}

// Root builds the host root node a component returns from Render when it
// needs data on the host element itself.
func Root(args ...any) *Node {
	return createElement("", args)
}

// Slot builds a slot placeholder. An empty name selects the default slot;
// fallback renders only when no content is projected.
func Slot(name string, fallback ...any) *Node {
	args := make([]any, 0, len(fallback)+1)
	if name != "" {
		args = append(args, Name(name))
	}
	args = append(args, fallback...)
	return createElement(SlotTag, args)
}

// Document structure elements

func Head(args ...any) *Node  { return createElement("head", args) }
func Title(args ...any) *Node { return createElement("title", args) }
func Meta(args ...any) *Node  { return createElement("meta", args) }
func Link(args ...any) *Node  { return createElement("link", args) }

// Sectioning elements

func Header(args ...any) *Node  { return createElement("header", args) }
func Footer(args ...any) *Node  { return createElement("footer", args) }
func Main(args ...any) *Node    { return createElement("main", args) }
func Nav(args ...any) *Node     { return createElement("nav", args) }
func Section(args ...any) *Node { return createElement("section", args) }
func Article(args ...any) *Node { return createElement("article", args) }
func Aside(args ...any) *Node   { return createElement("aside", args) }
func H1(args ...any) *Node      { return createElement("h1", args) }
func H2(args ...any) *Node      { return createElement("h2", args) }
func H3(args ...any) *Node      { return createElement("h3", args) }

// Grouping content

func Div(args ...any) *Node  { return createElement("div", args) }
func P(args ...any) *Node    { return createElement("p", args) }
func Span(args ...any) *Node { return createElement("span", args) }
func Pre(args ...any) *Node  { return createElement("pre", args) }
func Ul(args ...any) *Node   { return createElement("ul", args) }
func Ol(args ...any) *Node   { return createElement("ol", args) }
func Li(args ...any) *Node   { return createElement("li", args) }
func Hr(args ...any) *Node   { return createElement("hr", args) }
func Br(args ...any) *Node   { return createElement("br", args) }

// Text-level semantics

func A(args ...any) *Node      { return createElement("a", args) }
func Strong(args ...any) *Node { return createElement("strong", args) }
func Em(args ...any) *Node     { return createElement("em", args) }
func Code(args ...any) *Node   { return createElement("code", args) }

// Forms

func Form(args ...any) *Node     { return createElement("form", args) }
func Input(args ...any) *Node    { return createElement("input", args) }
func Button(args ...any) *Node   { return createElement("button", args) }
func Label(args ...any) *Node    { return createElement("label", args) }
func Textarea(args ...any) *Node { return createElement("textarea", args) }
func Select(args ...any) *Node   { return createElement("select", args) }
func Option(args ...any) *Node   { return createElement("option", args) }

// Embedded content

func Img(args ...any) *Node { return createElement("img", args) }
func Svg(args ...any) *Node { return createElement("svg", args) }

// Use is the SVG <use> element.
func Use(args ...any) *Node { return createElement("use", args) }

// ForeignObject is the SVG <foreignObject> element. Its children are HTML.
func ForeignObject(args ...any) *Node { return createElement("foreignObject", args) }
