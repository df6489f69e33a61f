package dev

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeDocument ChangeType = iota
	ChangeModule
	ChangeStyle
	ChangeConfig
)

// String returns the string representation of the ChangeType.
func (t ChangeType) String() string {
	switch t {
	case ChangeDocument:
		return "document"
	case ChangeModule:
		return "module"
	case ChangeStyle:
		return "style"
	case ChangeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Change represents a detected file change.
type Change struct {
	Path    string
	Type    ChangeType
	Removed bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the files and directories to watch. Directories are
	// watched recursively.
	Paths []string

	// Ignore patterns to skip (globs or path segments).
	Ignore []string

	// Debounce is the quiet period before changes are reported.
	Debounce time.Duration

	// Logger receives watch errors. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// ErrRunning is returned by Start when the watcher is already running.
var ErrRunning = errors.New("dev: watcher already running")

// Watcher monitors files for changes.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	onChange func(Change)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	// files holds watched paths that are plain files. Their parent
	// directory is watched and other entries in it are filtered out.
	files map[string]bool
	dirs  map[string]bool
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		config: config,
		logger: logger.With("component", "watcher"),
		files:  make(map[string]bool),
		dirs:   make(map[string]bool),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunning
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("dev: %w", err)
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer func() {
		fw.Close()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	for _, p := range w.config.Paths {
		if err := w.add(fw, p); err != nil {
			return err
		}
	}

	pending := make(map[string]Change)
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			c, ok := w.classify(fw, ev)
			if !ok {
				continue
			}
			pending[c.Path] = c
			timer.Reset(w.config.Debounce)
		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]Change)
		}
	}
}

// add registers p with fw. Files are watched through their directory so
// that editors replacing the file by rename keep being seen.
func (w *Watcher) add(fw *fsnotify.Watcher, p string) error {
	clean := filepath.Clean(p)
	info, err := os.Stat(clean)
	if err != nil {
		return fmt.Errorf("dev: watch %s: %w", p, err)
	}
	if !info.IsDir() {
		w.mu.Lock()
		w.files[clean] = true
		w.mu.Unlock()
		return fw.Add(filepath.Dir(clean))
	}
	return filepath.WalkDir(clean, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if sub != clean && w.shouldIgnore(sub) {
			return filepath.SkipDir
		}
		w.mu.Lock()
		w.dirs[sub] = true
		w.mu.Unlock()
		return fw.Add(sub)
	})
}

// classify turns an fsnotify event into a Change, or reports false when
// the event is not interesting.
func (w *Watcher) classify(fw *fsnotify.Watcher, ev fsnotify.Event) (Change, bool) {
	if ev.Op == fsnotify.Chmod {
		return Change{}, false
	}
	name := filepath.Clean(ev.Name)
	if w.shouldIgnore(name) {
		return Change{}, false
	}

	w.mu.Lock()
	isFile := w.files[name]
	parentWatched := w.dirs[filepath.Dir(name)]
	w.mu.Unlock()
	if !isFile && !parentWatched {
		return Change{}, false
	}

	if ev.Has(fsnotify.Create) && parentWatched {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.add(fw, name); err != nil {
				w.logger.Warn("watch new directory", "path", name, "error", err)
			}
			return Change{}, false
		}
	}

	removed := ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	if removed {
		// A rename-over save recreates the file; report it as a change.
		if _, err := os.Stat(name); err == nil {
			removed = false
		}
	}
	return Change{Path: name, Type: classifyChange(name), Removed: removed}, true
}

func (w *Watcher) flush(pending map[string]Change) {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil || len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		callback(pending[p])
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if containsSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}
		if containsSegments(normalized, pattern) {
			return true
		}
	}
	return false
}

// containsSegments reports whether the segments of pattern appear
// consecutively in p.
func containsSegments(p, pattern string) bool {
	pathParts := splitSegments(p)
	patternParts := splitSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}
	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitSegments(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

// classifyChange determines the type of change from the file name.
func classifyChange(p string) ChangeType {
	if filepath.Base(p) == "vessel.yaml" {
		return ChangeConfig
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".js", ".mjs":
		return ChangeModule
	case ".css":
		return ChangeStyle
	default:
		return ChangeDocument
	}
}
