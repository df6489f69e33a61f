// Package registry provides the built-in components shipped with vessel.
//
// The components double as a working reference for descriptor authors and
// as fixtures for the CLI:
//
//   - x-card: a panel with header, default and footer slots
//   - x-counter: a button that counts clicks and emits count-changed
//   - x-greeting: a localized greeting driven by the lang context
//   - x-list: a keyed list rendered from a comma-separated items attribute
//
// Styles and modules are embedded and served through Reader, so a driver
// built with
//
//	reg := component.NewRegistry()
//	if err := registry.Register(reg); err != nil {
//	    return err
//	}
//	d := hydrate.New(reg, hydrate.WithReader(loader.Chain{local, registry.Reader()}))
//
// resolves the built-in bundles after any project files.
package registry
