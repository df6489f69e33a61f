package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when a module or style file doesn't exist.
var ErrNotFound = errors.New("loader: file not found")

// Reader fetches module and style content by slash-separated path.
// Implement this interface to serve bundles from other storage.
type Reader interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// cleanName normalises a bundle path and rejects escapes from the root.
func cleanName(name string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(name))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return clean, nil
}

// DirReader reads bundles from a directory on the local filesystem.
type DirReader struct {
	dir string
}

// NewDirReader creates a DirReader rooted at dir.
func NewDirReader(dir string) *DirReader {
	return &DirReader{dir: dir}
}

// Read implements Reader.
func (r *DirReader) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", clean, err)
	}
	return data, nil
}

// MapReader serves bundles from memory.
type MapReader struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMapReader creates a MapReader holding files.
func NewMapReader(files map[string]string) *MapReader {
	r := &MapReader{files: make(map[string][]byte, len(files))}
	for name, content := range files {
		r.Put(name, content)
	}
	return r
}

// Put stores content under name.
func (r *MapReader) Put(name, content string) {
	clean, err := cleanName(name)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.files[clean] = []byte(content)
	r.mu.Unlock()
}

// Read implements Reader.
func (r *MapReader) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.files[clean]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	return append([]byte(nil), data...), nil
}

// FSReader reads bundles from an fs.FS, such as an embedded tree.
type FSReader struct {
	fsys fs.FS
}

// NewFSReader creates an FSReader over fsys.
func NewFSReader(fsys fs.FS) *FSReader {
	return &FSReader{fsys: fsys}
}

// Read implements Reader.
func (r *FSReader) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(r.fsys, clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", clean, err)
	}
	return data, nil
}

// Chain tries each reader in order and returns the first result that is
// not ErrNotFound.
type Chain []Reader

// Read implements Reader.
func (c Chain) Read(ctx context.Context, name string) ([]byte, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		data, err := r.Read(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return data, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}
