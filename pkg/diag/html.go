package diag

import (
	"html"
	"strings"
)

// FailureHTML renders the document returned in place of partially
// hydrated output when loading failed.
func FailureHTML(ds []Diagnostic) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>Hydrate Error</title>")
	b.WriteString("<style>body{font-family:monospace;margin:2em}.diag{margin:0 0 1.5em}.diag-header{font-weight:bold}.diag-error .diag-header{color:#c00}.diag-warn .diag-header{color:#a60}</style>")
	b.WriteString("</head><body><h1>Hydrate Error</h1>")
	for _, d := range ds {
		if d.Level < LevelWarn {
			continue
		}
		b.WriteString(`<div class="diag diag-`)
		b.WriteString(d.Level.String())
		b.WriteString(`"><div class="diag-header">`)
		if d.Code != "" {
			b.WriteString(html.EscapeString(d.Code))
			b.WriteString(": ")
		}
		b.WriteString(html.EscapeString(d.Header))
		if d.Tag != "" {
			b.WriteString(" &lt;")
			b.WriteString(html.EscapeString(d.Tag))
			b.WriteString("&gt;")
		}
		b.WriteString(`</div><pre class="diag-message">`)
		b.WriteString(html.EscapeString(d.Message))
		b.WriteString("</pre></div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
