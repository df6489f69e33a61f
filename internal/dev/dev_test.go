package dev

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, cfg WatcherConfig) (*Watcher, <-chan Change) {
	t.Helper()
	if cfg.Debounce == 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	w := NewWatcher(cfg)
	changes := make(chan Change, 16)
	w.OnChange(func(c Change) { changes <- c })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(2 * time.Second)
	for !w.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Give Start time to register its watches.
	time.Sleep(100 * time.Millisecond)
	return w, changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change")
		return Change{}
	}
}

func TestWatcherFile(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	other := filepath.Join(dir, "other.html")
	if err := os.WriteFile(page, []byte("<p>a</p>"), 0644); err != nil {
		t.Fatal(err)
	}

	_, changes := startWatcher(t, WatcherConfig{Paths: []string{page}})

	// Siblings of a watched file are filtered out.
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(page, []byte("<p>b</p>"), 0644); err != nil {
		t.Fatal(err)
	}

	c := waitChange(t, changes)
	if c.Path != page {
		t.Errorf("Path = %q, want %q", c.Path, page)
	}
	if c.Type != ChangeDocument || c.Removed {
		t.Errorf("Change = %+v", c)
	}
}

func TestWatcherDirectory(t *testing.T) {
	dir := t.TempDir()
	styles := filepath.Join(dir, "styles")
	if err := os.MkdirAll(styles, 0755); err != nil {
		t.Fatal(err)
	}

	_, changes := startWatcher(t, WatcherConfig{Paths: []string{dir}})

	css := filepath.Join(styles, "sc-x-card.css")
	if err := os.WriteFile(css, []byte(".card{}"), 0644); err != nil {
		t.Fatal(err)
	}
	c := waitChange(t, changes)
	if c.Path != css || c.Type != ChangeStyle {
		t.Errorf("Change = %+v", c)
	}

	if err := os.Remove(css); err != nil {
		t.Fatal(err)
	}
	c = waitChange(t, changes)
	if c.Path != css || !c.Removed {
		t.Errorf("Change after remove = %+v", c)
	}
}

func TestWatcherStartTwice(t *testing.T) {
	w, _ := startWatcher(t, WatcherConfig{Paths: []string{t.TempDir()}})
	if err := w.Start(context.Background()); err != ErrRunning {
		t.Errorf("second Start error = %v, want ErrRunning", err)
	}
	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning after Stop")
	}
}

func TestWatcherMissingPath(t *testing.T) {
	w := NewWatcher(WatcherConfig{Paths: []string{filepath.Join(t.TempDir(), "missing")}})
	if err := w.Start(context.Background()); err == nil {
		t.Error("Start with a missing path succeeded")
	}
	if w.IsRunning() {
		t.Error("IsRunning after failed Start")
	}
}

func TestWatcherIgnore(t *testing.T) {
	w := NewWatcher(WatcherConfig{Ignore: []string{"*.swp", "node_modules", "build/tmp"}})

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join("site", "page.html.swp"), true},
		{filepath.Join("site", "node_modules", "x.js"), true},
		{filepath.Join("site", "build", "tmp", "a.css"), true},
		{filepath.Join("site", "build", "a.css"), false},
		{filepath.Join("site", "attempt.html"), false},
	}
	for _, tt := range tests {
		if got := w.shouldIgnore(tt.path); got != tt.want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
	}{
		{"page.html", ChangeDocument},
		{"build/x-card.js", ChangeModule},
		{"build/x-card.MJS", ChangeModule},
		{"styles/sc-x-card.css", ChangeStyle},
		{"site/vessel.yaml", ChangeConfig},
	}
	for _, tt := range tests {
		if got := classifyChange(tt.path); got != tt.want {
			t.Errorf("classifyChange(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
