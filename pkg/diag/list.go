package diag

import "sync"

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// List collects diagnostics in report order. It is safe for concurrent
// use.
type List struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report implements Reporter.
func (l *List) Report(d Diagnostic) {
	l.mu.Lock()
	l.items = append(l.items, d)
	l.mu.Unlock()
}

// Items returns a copy of the collected diagnostics.
func (l *List) Items() []Diagnostic {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Diagnostic(nil), l.items...)
}

// Len returns the number of collected diagnostics.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// HasErrors reports whether any error-level diagnostic was collected.
func (l *List) HasErrors() bool {
	return len(l.Filter(LevelError)) > 0
}

// Filter returns the diagnostics at or above level.
func (l *List) Filter(level Level) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.Items() {
		if d.Level >= level {
			out = append(out, d)
		}
	}
	return out
}

// ByCategory returns the diagnostics of one category.
func (l *List) ByCategory(c Category) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.Items() {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}
