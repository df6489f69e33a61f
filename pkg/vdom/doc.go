// Package vdom provides the lightweight tree model components render to and
// the diff/patch engine that keeps a live platform tree in sync with it.
//
// # Core Types
//
// Node describes one element, text node or slot placeholder. Data is the
// optional bag of attributes, properties, classes, styles, listeners, key
// and namespace passed to H. Element helpers such as Div and Span accept a
// mix of Attr, EventHandler, *Data and children:
//
//	Div(Class("card"), Key("row-1"),
//	    H2("Title"),
//	    Slot(""),
//	    OnClick(handler),
//	)
//
// # Patching
//
// Patcher.Patch mutates the platform tree rooted at old.Elm to match the new
// Node and returns the new Node with every Elm populated. Elements are moved
// rather than recreated when keyed siblings reorder; a two-pointer scan with
// a lazily built key map keeps the number of moves minimal.
//
// Slot placeholders never materialise. Captured host content is relocated
// under the slot's parent instead, bracketed by the Relocator so that the
// runtime does not mistake the move for a real detachment.
//
// # Server-Side Stamping
//
// When PatchOptions.SSRID is set, hosts receive an ssrv attribute, created
// elements an ssrc position id and text nodes a pair of marker comments, so
// a client runtime can re-attach to server output without recreating DOM.
package vdom
