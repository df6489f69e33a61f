package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Manifest maps bundle paths to their fingerprinted names, as written by a
// build step:
//
//	{
//	  "modules/x-card.js": "modules/x-card.a1b2c3d4.js",
//	  "styles/sc-x-card.css": "styles/sc-x-card.e5f6a7b8.css"
//	}
//
// It is safe for concurrent use.
type Manifest struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]string)}
}

// LoadManifest reads a JSON manifest called name through r.
func LoadManifest(ctx context.Context, r Reader, name string) (*Manifest, error) {
	data, err := r.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("loader: parse manifest %s: %w", name, err)
	}
	m := NewManifest()
	for k, v := range entries {
		m.Set(k, v)
	}
	return m, nil
}

// Resolve returns the fingerprinted name for name, or name itself when the
// manifest has no entry.
func (m *Manifest) Resolve(name string) string {
	clean, err := cleanName(name)
	if err != nil {
		return name
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if resolved, ok := m.entries[clean]; ok {
		return resolved
	}
	return name
}

// Set adds or updates an entry.
func (m *Manifest) Set(name, resolved string) {
	clean, err := cleanName(name)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.entries[clean] = resolved
	m.mu.Unlock()
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Fingerprinted wraps r so that every name is resolved through m first.
func Fingerprinted(r Reader, m *Manifest) Reader {
	return &manifestReader{r: r, m: m}
}

type manifestReader struct {
	r Reader
	m *Manifest
}

func (mr *manifestReader) Read(ctx context.Context, name string) ([]byte, error) {
	return mr.r.Read(ctx, mr.m.Resolve(name))
}
