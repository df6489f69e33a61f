// Package dev provides the file watching behind vessel's watch mode.
//
// A Watcher reports changes to documents, component modules, styles and
// the configuration file. Events are coalesced over a debounce window so
// an editor's save sequence yields one callback per path.
//
//	w := dev.NewWatcher(dev.WatcherConfig{
//	    Paths: []string{"page.html", "build"},
//	})
//	w.OnChange(func(c dev.Change) {
//	    log.Printf("%s changed", c.Path)
//	})
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
package dev
