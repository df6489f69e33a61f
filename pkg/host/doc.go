// Package host binds component descriptors to live elements.
//
// A Runtime is an explicit value: every test or embedding builds its own,
// and nothing is shared through package state. It owns the update queue,
// the patcher and an arena of Host records addressed by HostID. Ancestor
// and descendant relations are stored as ids, never as pointers.
//
// # Lifecycle
//
// Each host moves through
//
//	Unconnected → Connecting → Instantiating → Rendering → Loaded ⇄ Updating → Disconnected
//
// Connect attaches declared listeners, registers the host with its nearest
// defined ancestor that has not loaded yet and queues a high-priority task
// that captures slot content and loads the bundle. Once the bundle is
// ready the instance is created, proxied members are initialised and the
// first render is queued. A host never renders before its ancestor has
// rendered once, and never reports loaded while a descendant registered at
// connect time is still loading.
//
// # Failures
//
// Hook calls run under recover. Failures become diagnostics for the
// configured diag.Reporter and the host continues with its remaining work.
package host
