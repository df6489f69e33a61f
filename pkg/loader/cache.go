package loader

import (
	"context"
	"sync"

	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/scheduler"
)

// Cache de-duplicates reads of the same path. Concurrent requests share
// one fetch; completed content is kept until Reset. Failed reads are
// forgotten so a later request retries.
type Cache struct {
	reader Reader
	loop   *scheduler.Loop
	ctx    context.Context

	mu      sync.Mutex
	entries map[string]*async.Task
	pending int
	reads   int
}

// NewCache creates a Cache reading through r. Fetches run off the loop and
// settle on it.
func NewCache(ctx context.Context, r Reader, loop *scheduler.Loop) *Cache {
	return &Cache{reader: r, loop: loop, ctx: ctx, entries: make(map[string]*async.Task)}
}

// Fetch returns a task resolving to the content of name as []byte. Must be
// called from the loop goroutine.
func (c *Cache) Fetch(name string) *async.Task {
	c.mu.Lock()
	if t, ok := c.entries[name]; ok {
		c.mu.Unlock()
		return t
	}
	c.pending++
	c.reads++
	c.mu.Unlock()

	t := c.loop.Async(func() (any, error) {
		return c.reader.Read(c.ctx, name)
	})

	c.mu.Lock()
	c.entries[name] = t
	c.mu.Unlock()

	t.Then(func(_ any, err error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending--
		if err != nil && c.entries[name] == t {
			delete(c.entries, name)
		}
	})
	return t
}

// Pending returns the number of fetches still in flight.
func (c *Cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Reads returns how many reads reached the underlying Reader.
func (c *Cache) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Reset drops every completed entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, t := range c.entries {
		if t.Done() {
			delete(c.entries, name)
		}
	}
}
