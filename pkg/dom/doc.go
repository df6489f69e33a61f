// Package dom defines the platform operations the component runtime is
// allowed to perform on a document, and an emulated document backed by
// golang.org/x/net/html that implements them.
//
// The runtime never touches a concrete DOM beyond the Platform interface.
// This is what allows the same lifecycle and patch code to run against the
// emulated document during server-side hydration.
//
// # Emulated Document
//
// Document wraps an *html.Node tree and keeps side tables for the things a
// parsed tree cannot carry: element properties, event listeners and
// custom-element definitions. Defined elements receive Connected,
// Disconnected and AttributeChanged callbacks when they enter or leave the
// document, mirroring custom element reactions:
//
//	doc, _ := dom.ParseString(`<html><body><my-card></my-card></body></html>`)
//	doc.Define("my-card", callbacks)
//	doc.AppendChild(doc.Body(), doc.CreateElement("my-card")) // fires Connected
//
// Every mutation is counted in Stats so tests can assert that a patch
// performed exactly the expected amount of DOM work.
package dom
