package hydrate

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/vango-dev/vessel/pkg/diag"
)

// ContextLang is the context key holding the normalised document
// language. Options.Contexts may override it.
const ContextLang = "lang"

// Options configures one Hydrate call.
type Options struct {
	// URL is the document URL. It seeds the canonical link.
	URL string

	// Lang and Dir override the document element's lang and dir. An
	// empty Dir is derived from Lang for right-to-left scripts.
	Lang string
	Dir  string

	// Mode selects the rendering mode used for style ids.
	Mode string

	// Timeout bounds the whole run. Zero uses the driver default.
	Timeout time.Duration

	// Post-processing stages.
	Canonical          bool
	PruneCSS           bool
	InlineLoader       bool
	CollapseWhitespace bool

	// LoaderScript is the src of the external loader script inlined by
	// InlineLoader.
	LoaderScript string

	// Contexts are exposed to Context members.
	Contexts map[string]any
}

// Anchor is the attribute set of one <a> element.
type Anchor map[string]string

// Result is the output of Hydrate.
type Result struct {
	HTML        string            `json:"html" yaml:"html"`
	URL         string            `json:"url,omitempty" yaml:"url,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Anchors     []Anchor          `json:"anchors,omitempty" yaml:"anchors,omitempty"`
	Styles      map[string]string `json:"styles,omitempty" yaml:"styles,omitempty"`
	Hosts       int               `json:"hosts" yaml:"hosts"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
}

// Failed reports whether the result carries the failure document.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Category == diag.CategoryBundleLoad || d.Category == diag.CategoryTimeout {
			return true
		}
	}
	return false
}

// rtlScripts are the scripts written right to left.
var rtlScripts = map[string]bool{
	"Arab": true,
	"Hebr": true,
	"Thaa": true,
	"Syrc": true,
	"Nkoo": true,
	"Adlm": true,
	"Rohg": true,
}

// normalizeLocale canonicalises lang and derives dir when it is not given.
// An unparsable lang is passed through unchanged.
func normalizeLocale(lang, dir string) (string, string) {
	dir = strings.ToLower(strings.TrimSpace(dir))
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", dir
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang, dir
	}
	if dir == "" {
		if script, conf := tag.Script(); conf != language.No && rtlScripts[script.String()] {
			dir = "rtl"
		}
	}
	return tag.String(), dir
}
