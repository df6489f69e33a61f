package host

import (
	"sync"

	"github.com/vango-dev/vessel/pkg/dom"
)

// ChildListWatcher reports changes to the direct children of a host
// element. Watch returns a function that stops watching.
type ChildListWatcher interface {
	Watch(el dom.Node, onChange func()) (stop func())
}

// NopWatcher never reports changes.
type NopWatcher struct{}

// Watch implements ChildListWatcher.
func (NopWatcher) Watch(dom.Node, func()) func() { return func() {} }

// Poller is a ChildListWatcher that compares child lists when Poll is
// called.
type Poller struct {
	doc dom.Platform

	mu      sync.Mutex
	nextID  int
	entries map[int]*pollEntry
}

type pollEntry struct {
	el       dom.Node
	children []dom.Node
	onChange func()
}

// NewPoller creates a Poller over doc.
func NewPoller(doc dom.Platform) *Poller {
	return &Poller{doc: doc, entries: make(map[int]*pollEntry)}
}

// Watch implements ChildListWatcher.
func (p *Poller) Watch(el dom.Node, onChange func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.entries[id] = &pollEntry{el: el, children: p.doc.ChildNodes(el), onChange: onChange}
	return func() {
		p.mu.Lock()
		delete(p.entries, id)
		p.mu.Unlock()
	}
}

// Poll fires onChange for every watched element whose children differ
// from the last poll and returns how many fired.
func (p *Poller) Poll() int {
	p.mu.Lock()
	var changed []func()
	for _, e := range p.entries {
		cur := p.doc.ChildNodes(e.el)
		if !sameNodes(cur, e.children) {
			e.children = cur
			changed = append(changed, e.onChange)
		}
	}
	p.mu.Unlock()

	for _, fn := range changed {
		fn()
	}
	return len(changed)
}

// Len returns the number of watched elements.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func sameNodes(a, b []dom.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
