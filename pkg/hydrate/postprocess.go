package hydrate

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/loader"
)

// postProcessor rewrites the hydrated tree in place. It works on the raw
// nodes so that no element reactions fire once the runtime has settled.
type postProcessor struct {
	doc    *dom.Document
	reader loader.Reader
	ctx    context.Context
	list   *diag.List
}

func (p *postProcessor) run(opts Options) {
	root := p.doc.HTMLNode(p.doc.Root())
	if root == nil {
		return
	}
	if opts.Canonical && opts.URL != "" {
		p.canonical(root, opts.URL)
	}
	if opts.InlineLoader && opts.LoaderScript != "" {
		p.inlineLoader(root, opts.LoaderScript)
	}
	if opts.PruneCSS {
		pruneStyles(root)
	}
	if opts.CollapseWhitespace {
		collapseWhitespace(root)
	}
}

// canonical inserts or updates <link rel="canonical"> in head. Query and
// fragment are dropped from the URL.
func (p *postProcessor) canonical(root *html.Node, raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		p.list.Report(diag.Newf(diag.CategoryHydrate, diag.LevelWarn, "canonical url %q: %v", raw, err))
		return
	}
	u.RawQuery = ""
	u.Fragment = ""
	href := u.String()

	head := findElement(root, atom.Head)
	if head == nil {
		return
	}
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Link && strings.EqualFold(getAttr(c, "rel"), "canonical") {
			setAttr(c, "href", href)
			return
		}
	}
	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr:     []html.Attribute{{Key: "rel", Val: "canonical"}, {Key: "href", Val: href}},
	})
}

// inlineLoader replaces <script src="src"> with the script's content.
func (p *postProcessor) inlineLoader(root *html.Node, src string) {
	var scripts []*html.Node
	walkElements(root, func(n *html.Node) bool {
		if n.DataAtom == atom.Script && getAttr(n, "src") == src {
			scripts = append(scripts, n)
		}
		return true
	})
	if len(scripts) == 0 {
		return
	}
	if p.reader == nil {
		p.list.Report(diag.Newf(diag.CategoryHydrate, diag.LevelWarn, "cannot inline %s: no reader configured", src))
		return
	}
	body, err := p.reader.Read(p.ctx, src)
	if err != nil {
		p.list.Report(diag.Newf(diag.CategoryHydrate, diag.LevelWarn, "inline loader %s: %v", src, err))
		return
	}
	for _, s := range scripts {
		removeAttr(s, "src")
		for c := s.FirstChild; c != nil; {
			next := c.NextSibling
			s.RemoveChild(c)
			c = next
		}
		s.AppendChild(&html.Node{Type: html.TextNode, Data: string(body)})
	}
}

var preserveSpace = map[atom.Atom]bool{
	atom.Pre:      true,
	atom.Textarea: true,
	atom.Script:   true,
	atom.Style:    true,
}

// collapseWhitespace folds every whitespace run in text outside pre,
// textarea, script and style into one space.
func collapseWhitespace(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			c.Data = collapse(c.Data)
		case html.ElementNode:
			if preserveSpace[c.DataAtom] {
				continue
			}
			collapseWhitespace(c)
		}
	}
}

func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

// collectAnchors returns the attributes of every <a> element in document
// order.
func collectAnchors(d *dom.Document) []Anchor {
	var out []Anchor
	walkElements(d.HTMLNode(d.Root()), func(n *html.Node) bool {
		if n.DataAtom != atom.A {
			return true
		}
		a := make(Anchor, len(n.Attr))
		for _, attr := range n.Attr {
			a[attr.Key] = attr.Val
		}
		out = append(out, a)
		return true
	})
	return out
}

// walkElements visits elements depth-first. Returning false skips the
// children of the visited element.
func walkElements(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if fn(c) {
			walkElements(c, fn)
		}
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walkElements(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.DataAtom == a {
			found = c
			return false
		}
		return true
	})
	return found
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
