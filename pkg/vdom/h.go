package vdom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/vessel/pkg/dom"
)

// SkipMode selects which parts of a node are left alone on update.
type SkipMode uint8

const (
	SkipDefault      SkipMode = iota // decided by H: nothing skipped when data is given
	SkipNothing                      // patch data and children
	SkipDataOnly                     // leave attrs, props, classes, styles and listeners
	SkipChildrenOnly                 // leave children
	SkipBoth                         // leave everything
)

// Data is the optional bag passed to H.
type Data struct {
	Attrs map[string]any
	Props map[string]any
	Class map[string]bool
	Style map[string]string
	On    map[string]any
	Key   string
	NS    string
	Ref   func(dom.Node)
	Skip  SkipMode
}

// Bound is a listener value carrying extra arguments.
type Bound struct {
	Fn   func(ev *dom.Event, args ...any)
	Args []any
}

// H builds a Node. An empty tag builds the host root node.
//
// Children may be *Node, []*Node, []any, strings, numbers, booleans or nil.
// Nested slices are flattened depth-first, booleans and nil are dropped and
// consecutive primitives are joined into one text node.
func H(tag string, data *Data, children ...any) *Node {
	n := &Node{Tag: tag}

	var b builder
	b.add(children)
	n.Children = b.finish()

	if data == nil {
		n.SkipData = true
		n.SkipChildren = len(n.Children) == 0
		return n
	}

	n.Attrs = data.Attrs
	n.Props = data.Props
	n.Class = data.Class
	n.Style = data.Style
	n.On = data.On
	n.Key = data.Key
	n.NS = data.NS
	n.Ref = data.Ref

	switch data.Skip {
	case SkipDataOnly:
		n.SkipData = true
	case SkipChildrenOnly:
		n.SkipChildren = true
	case SkipBoth:
		n.SkipData = true
		n.SkipChildren = true
	}
	return n
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{Text: content, IsText: true}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

type builder struct {
	out        []*Node
	lastSimple bool
}

func (b *builder) add(children []any) {
	for _, child := range children {
		switch v := child.(type) {
		case nil, bool:
			continue
		case *Node:
			if v == nil {
				continue
			}
			b.out = append(b.out, v)
			b.lastSimple = false
		case []*Node:
			for _, c := range v {
				if c != nil {
					b.out = append(b.out, c)
					b.lastSimple = false
				}
			}
		case []any:
			b.add(v)
		default:
			s, ok := primitive(v)
			if !ok {
				continue
			}
			if b.lastSimple {
				last := b.out[len(b.out)-1]
				last.Text += s
				continue
			}
			b.out = append(b.out, Text(s))
			b.lastSimple = true
		}
	}
}

func (b *builder) finish() []*Node {
	return b.out
}

func primitive(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}

// classSet splits a space separated class string.
func classSet(classes string) map[string]bool {
	fields := strings.Fields(classes)
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
