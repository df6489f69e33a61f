package dom

import (
	"fmt"
	"net/url"
	"strings"
)

// WindowOptions configures an emulated window.
type WindowOptions struct {
	URL       string
	Lang      string
	Direction string
}

// Window is the emulated global scope a server-side render runs in.
type Window struct {
	Document *Document
	Location *url.URL
}

// NewWindow parses html into a Document and applies the window options.
// Lang and Direction are written onto the document element when set.
func NewWindow(htmlText string, opts WindowOptions) (*Window, error) {
	doc, err := ParseString(htmlText)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	w := &Window{Document: doc}
	if opts.URL != "" {
		u, err := url.Parse(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", opts.URL, err)
		}
		w.Location = u
		doc.SetURL(u)
	}

	root := doc.DocumentElement()
	if root == nil {
		return w, nil
	}
	if opts.Lang != "" {
		doc.SetAttribute(root, "lang", opts.Lang)
	}
	if opts.Direction != "" {
		doc.SetAttribute(root, "dir", strings.ToLower(opts.Direction))
	}
	doc.ResetStats()
	return w, nil
}
