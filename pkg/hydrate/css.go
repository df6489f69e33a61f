package hydrate

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// usage is the set of selectable names present in a document.
type usage struct {
	tags    map[string]bool
	classes map[string]bool
	ids     map[string]bool
}

func collectUsage(root *html.Node) usage {
	u := usage{tags: map[string]bool{}, classes: map[string]bool{}, ids: map[string]bool{}}
	walkElements(root, func(n *html.Node) bool {
		u.tags[strings.ToLower(n.Data)] = true
		for _, a := range n.Attr {
			switch a.Key {
			case "class":
				for _, c := range strings.Fields(a.Val) {
					u.classes[c] = true
				}
			case "id":
				u.ids[a.Val] = true
			}
		}
		return true
	})
	return u
}

// pruneStyles drops style rules whose selectors cannot match anything in
// the document. Only tag, class and id requirements are checked; a
// selector with anything the matcher does not understand is kept.
func pruneStyles(root *html.Node) int {
	u := collectUsage(root)
	removed := 0
	walkElements(root, func(n *html.Node) bool {
		if n.DataAtom != atom.Style {
			return true
		}
		if t := n.FirstChild; t != nil && t.Type == html.TextNode && t.NextSibling == nil {
			out, dropped := pruneCSS(t.Data, u)
			if dropped > 0 {
				t.Data = out
				removed += dropped
			}
		}
		return false
	})
	return removed
}

// pruneCSS returns css without the unused rules and the number of
// selectors dropped. Rules inside @media, @supports, @layer and @container
// are pruned too; other at-rule blocks are kept whole. A stylesheet that
// does not parse is returned unchanged.
func pruneCSS(src string, u usage) (string, int) {
	p := css.NewParser(parse.NewInputString(src), false)
	stack := []*cssBlock{{prunable: true}}
	var pending [][]css.Token
	var rule *cssRule

	for {
		gt, _, data := p.Next()
		top := stack[len(stack)-1]
		switch gt {
		case css.ErrorGrammar:
			if p.Err() != io.EOF {
				return src, 0
			}
			return stack[0].out.String(), stack[0].dropped
		case css.CommentGrammar:
		case css.AtRuleGrammar:
			top.out.WriteString(atRuleHead(data, p.Values()) + ";")
		case css.BeginAtRuleGrammar:
			stack = append(stack, &cssBlock{
				head:     atRuleHead(data, p.Values()),
				prunable: top.prunable && prunableAtRules[strings.ToLower(string(data))],
			})
		case css.EndAtRuleGrammar:
			if len(stack) == 1 {
				continue
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.dropped += top.dropped
			if top.prunable && top.dropped > 0 && top.out.Len() == 0 {
				continue
			}
			parent.out.WriteString(top.head + "{" + top.out.String() + "}")
		case css.QualifiedRuleGrammar:
			pending = append(pending, splitSelectors(p.Values())...)
		case css.BeginRulesetGrammar:
			sels := append(pending, splitSelectors(p.Values())...)
			pending = nil
			var kept []string
			for _, sel := range sels {
				if len(sel) == 0 {
					continue
				}
				if !top.prunable || selectorUsed(sel, u) {
					kept = append(kept, tokensString(sel))
				} else {
					top.dropped++
				}
			}
			rule = &cssRule{skip: len(kept) == 0}
			if !rule.skip {
				top.out.WriteString(strings.Join(kept, ",") + "{")
			}
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if rule != nil && rule.skip {
				continue
			}
			if rule != nil {
				if rule.decls > 0 {
					top.out.WriteByte(';')
				}
				rule.decls++
			}
			top.out.WriteString(string(data) + ":" + tokensString(p.Values()))
		case css.EndRulesetGrammar:
			if rule != nil && !rule.skip {
				top.out.WriteByte('}')
			}
			rule = nil
		default:
			if rule == nil || !rule.skip {
				top.out.Write(data)
			}
		}
	}
}

var prunableAtRules = map[string]bool{
	"@media":     true,
	"@supports":  true,
	"@layer":     true,
	"@container": true,
}

// cssBlock collects the output of the stylesheet or of one at-rule block.
type cssBlock struct {
	head     string
	out      strings.Builder
	dropped  int
	prunable bool
}

// cssRule tracks the ruleset being written.
type cssRule struct {
	skip  bool
	decls int
}

func atRuleHead(name []byte, values []css.Token) string {
	prelude := tokensString(values)
	if prelude == "" {
		return string(name)
	}
	return string(name) + " " + prelude
}

// splitSelectors splits a selector list on top-level commas. Each selector
// is copied out of the parser's buffer.
func splitSelectors(values []css.Token) [][]css.Token {
	var out [][]css.Token
	var cur []css.Token
	depth := 0
	for _, t := range values {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				out = append(out, trimSpace(cur))
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	return append(out, trimSpace(cur))
}

func trimSpace(ts []css.Token) []css.Token {
	for len(ts) > 0 && ts[0].TokenType == css.WhitespaceToken {
		ts = ts[1:]
	}
	for len(ts) > 0 && ts[len(ts)-1].TokenType == css.WhitespaceToken {
		ts = ts[:len(ts)-1]
	}
	return ts
}

func tokensString(ts []css.Token) string {
	var b strings.Builder
	for _, t := range trimSpace(ts) {
		if t.TokenType == css.WhitespaceToken {
			b.WriteByte(' ')
			continue
		}
		b.Write(t.Data)
	}
	return b.String()
}

// selectorUsed reports whether every tag, class and id named by sel is
// present. Arguments of functional pseudo-classes and attribute selectors
// are not inspected; a selector with escapes is kept.
func selectorUsed(sel []css.Token, u usage) bool {
	compoundStart := true
	depth := 0
	for i := 0; i < len(sel); i++ {
		t := sel[i]
		if bytes.IndexByte(t.Data, '\\') >= 0 {
			return true
		}
		if depth > 0 {
			switch t.TokenType {
			case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
				depth++
			case css.RightParenthesisToken, css.RightBracketToken:
				depth--
			}
			continue
		}
		switch t.TokenType {
		case css.WhitespaceToken:
			compoundStart = true
		case css.DelimToken:
			switch t.Data[0] {
			case '.':
				if i+1 < len(sel) && sel[i+1].TokenType == css.IdentToken {
					if !u.classes[string(sel[i+1].Data)] {
						return false
					}
					i++
				}
				compoundStart = false
			case '>', '+', '~':
				compoundStart = true
			default:
				compoundStart = false
			}
		case css.HashToken:
			if !u.ids[string(t.Data[1:])] {
				return false
			}
			compoundStart = false
		case css.IdentToken:
			if compoundStart && !u.tags[strings.ToLower(string(t.Data))] {
				return false
			}
			compoundStart = false
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
			compoundStart = false
		default:
			compoundStart = false
		}
	}
	return true
}
