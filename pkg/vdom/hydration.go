package vdom

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Server-side stamp names.
const (
	// AttrHostID marks a host element with its server render id.
	AttrHostID = "ssrv"
	// AttrChildID marks an element created by a host's render with
	// "<hostID>.<index>", plus a trailing "." when the element is a leaf.
	AttrChildID = "ssrc"
	// TextStartPrefix begins the comment placed before a stamped text node.
	TextStartPrefix = "s."
	// TextEnd is the comment placed after a stamped text node.
	TextEnd = "/"
)

// IDGenerator hands out server render ids. Ids start at 1; zero means
// "not stamped".
type IDGenerator struct {
	mu      sync.Mutex
	counter int
}

// NewIDGenerator creates a new IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next id.
func (g *IDGenerator) Next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.counter
}

// Current returns the last id handed out.
func (g *IDGenerator) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// ChildID formats the ssrc value of the index-th child of host id.
func ChildID(id, index int, leaf bool) string {
	s := strconv.Itoa(id) + "." + strconv.Itoa(index)
	if leaf {
		s += "."
	}
	return s
}

// TextStart formats the opening marker comment of a stamped text node.
func TextStart(id, index int) string {
	return fmt.Sprintf("%s%d.%d", TextStartPrefix, id, index)
}

// ParseChildID splits an ssrc value.
func ParseChildID(v string) (id, index int, leaf bool, err error) {
	leaf = strings.HasSuffix(v, ".")
	parts := strings.Split(strings.TrimSuffix(v, "."), ".")
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("vdom: malformed child id %q", v)
	}
	if id, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false, fmt.Errorf("vdom: malformed child id %q: %w", v, err)
	}
	if index, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false, fmt.Errorf("vdom: malformed child id %q: %w", v, err)
	}
	return id, index, leaf, nil
}
