package loader

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/component"
)

// DefaultStylePath maps a style id to its file.
func DefaultStylePath(styleID string) string {
	return "styles/" + styleID + ".css"
}

// ModuleLoader loads component bundles through a Cache. A missing module
// fails the load; a missing style file is treated as no style.
type ModuleLoader struct {
	cache     *Cache
	stylePath func(styleID string) string
}

// ModuleOption configures a ModuleLoader.
type ModuleOption func(*ModuleLoader)

// WithStylePath sets the style id to path mapping.
func WithStylePath(fn func(styleID string) string) ModuleOption {
	return func(l *ModuleLoader) { l.stylePath = fn }
}

// NewModuleLoader creates a ModuleLoader over cache.
func NewModuleLoader(cache *Cache, opts ...ModuleOption) *ModuleLoader {
	l := &ModuleLoader{cache: cache, stylePath: DefaultStylePath}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cache returns the loader's cache.
func (l *ModuleLoader) Cache() *Cache { return l.cache }

// Load resolves to a *component.Bundle for d in mode, or nil when the
// component has neither a module nor a style.
func (l *ModuleLoader) Load(d *component.Descriptor, mode string) *async.Task {
	styleID := d.StyleID(mode)
	if d.Module == "" && styleID == "" {
		return nil
	}

	var module, style *async.Task
	if d.Module != "" {
		module = l.cache.Fetch(d.Module)
	}
	if styleID != "" {
		style = l.cache.Fetch(l.stylePath(styleID))
	}

	out, res := async.New()
	async.All(module, style).Then(func(_ any, _ error) {
		b := &component.Bundle{Module: d.Module}
		if err := module.Err(); err != nil {
			_ = res.Reject(fmt.Errorf("load %s for <%s>: %w", d.Module, d.Tag, err))
			return
		}
		if src, ok := module.Value().([]byte); ok {
			b.Source = src
		}
		switch err := style.Err(); {
		case err == nil:
			if css, ok := style.Value().([]byte); ok {
				b.StyleID = styleID
				b.Style = string(css)
			}
		case !errors.Is(err, ErrNotFound):
			_ = res.Reject(fmt.Errorf("load style %s for <%s>: %w", styleID, d.Tag, err))
			return
		}
		_ = res.Resolve(b)
	})
	return out
}
