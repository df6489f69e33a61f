// Package hydrate renders component documents on the server.
//
// A Driver parses the input document into an emulated window, binds every
// registered component found in it and runs a private event loop until
// all top-level hosts have loaded. Each host is stamped with hydration
// ids so the client can pick up where the server stopped:
//
//	<x-card ssrv="1"><p ssrc="1.0"><!--s.1.0-->text<!--/--></p></x-card>
//
// The serialised document then goes through optional post-processing:
// canonical link insertion, pruning of unused style rules, inlining of
// the loader script and whitespace collapsing.
//
// Component failures never abort a run. They are collected as
// diagnostics, except for bundle load failures and timeouts, which
// replace the output with a failure page.
package hydrate
