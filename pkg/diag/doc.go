// Package diag defines the diagnostics reported by the runtime and the
// hydration driver.
//
// Every user hook invocation and every load operation is isolated. A
// failure becomes a Diagnostic tagged with its Category and the offending
// host's tag name, and work continues with the next host. Whether any
// diagnostic is fatal is left to the caller:
//
//	res, err := driver.Hydrate(ctx, html, opts)
//	if res.Diagnostics.HasErrors() {
//	    fmt.Fprint(os.Stderr, diag.Format(res.Diagnostics.Items()))
//	}
//
// Categories map to registered templates that carry a stable code, a
// default level and a header, in the same way error codes map to
// templates elsewhere in the toolchain.
package diag
