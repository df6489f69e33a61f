// Package loader fetches component modules and styles for the runtime.
//
// Reads go through a Reader (local directory, memory or S3) and are
// de-duplicated by a Cache that runs them off the loop goroutine and
// settles their tasks back on it. ModuleLoader turns a descriptor into a
// component.Bundle and satisfies host.BundleLoader.
package loader
