package loader_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/host"
	"github.com/vango-dev/vessel/pkg/loader"
	"github.com/vango-dev/vessel/pkg/scheduler"
)

var _ host.BundleLoader = (*loader.ModuleLoader)(nil)

func TestDirReader(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "build"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "build", "x-card.js"), []byte("export{}"), 0644); err != nil {
		t.Fatal(err)
	}
	r := loader.NewDirReader(dir)
	ctx := context.Background()

	data, err := r.Read(ctx, "build/x-card.js")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "export{}" {
		t.Errorf("Read = %q", data)
	}

	// Escapes are clamped to the root.
	if data, err := r.Read(ctx, "../build/x-card.js"); err != nil || string(data) != "export{}" {
		t.Errorf("Read(../build/x-card.js) = %q, %v", data, err)
	}

	if _, err := r.Read(ctx, "missing.js"); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := r.Read(ctx, ""); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("Read(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestMapReader(t *testing.T) {
	r := loader.NewMapReader(map[string]string{"/a.js": "a"})
	data, err := r.Read(context.Background(), "a.js")
	if err != nil || string(data) != "a" {
		t.Errorf("Read(a.js) = %q, %v", data, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Read(ctx, "a.js"); !errors.Is(err, context.Canceled) {
		t.Errorf("Read with cancelled context error = %v", err)
	}
}

func TestFSReaderAndChain(t *testing.T) {
	fsys := fstest.MapFS{
		"styles/sc-x-card.css": {Data: []byte(".card{}")},
	}
	embedded := loader.NewFSReader(fsys)
	local := loader.NewMapReader(map[string]string{"styles/sc-x-card.css": ".local{}"})
	ctx := context.Background()

	data, err := embedded.Read(ctx, "/styles/sc-x-card.css")
	if err != nil || string(data) != ".card{}" {
		t.Errorf("FSReader.Read = %q, %v", data, err)
	}
	if _, err := embedded.Read(ctx, "styles/missing.css"); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("FSReader.Read(missing) error = %v, want ErrNotFound", err)
	}

	chain := loader.Chain{nil, local, embedded}
	if data, _ := chain.Read(ctx, "styles/sc-x-card.css"); string(data) != ".local{}" {
		t.Errorf("Chain.Read = %q, want the first reader's file", data)
	}
	local = loader.NewMapReader(nil)
	chain = loader.Chain{local, embedded}
	if data, _ := chain.Read(ctx, "styles/sc-x-card.css"); string(data) != ".card{}" {
		t.Errorf("Chain.Read fallback = %q", data)
	}
	if _, err := chain.Read(ctx, "nope.js"); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("Chain.Read(missing) error = %v, want ErrNotFound", err)
	}
}

func TestManifest(t *testing.T) {
	ctx := context.Background()
	files := loader.NewMapReader(map[string]string{
		"manifest.json":          `{"/modules/x-card.js": "modules/x-card.a1b2.js"}`,
		"modules/x-card.a1b2.js": "hashed",
		"styles/sc-x-card.css":   ".card{}",
		"broken.json":            `{"a":`,
	})

	m, err := loader.LoadManifest(ctx, files, "manifest.json")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	if got := m.Resolve("modules/x-card.js"); got != "modules/x-card.a1b2.js" {
		t.Errorf("Resolve = %q", got)
	}

	r := loader.Fingerprinted(files, m)
	if data, err := r.Read(ctx, "modules/x-card.js"); err != nil || string(data) != "hashed" {
		t.Errorf("Read(modules/x-card.js) = %q, %v", data, err)
	}
	if data, err := r.Read(ctx, "styles/sc-x-card.css"); err != nil || string(data) != ".card{}" {
		t.Errorf("Read(unmapped) = %q, %v", data, err)
	}

	if _, err := loader.LoadManifest(ctx, files, "broken.json"); err == nil {
		t.Error("LoadManifest(broken.json) succeeded")
	}
	if _, err := loader.LoadManifest(ctx, files, "missing.json"); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("LoadManifest(missing) error = %v, want ErrNotFound", err)
	}
}

type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, aws.ToString(in.Bucket)+"/"+key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Reader(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"build/x-card.js": "export{}", "build/big.js": "0123456789"}}
	r := loader.NewS3Reader(client, "assets", "build/")
	ctx := context.Background()

	data, err := r.Read(ctx, "x-card.js")
	if err != nil || string(data) != "export{}" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if client.keys[0] != "assets/build/x-card.js" {
		t.Errorf("requested %q, want assets/build/x-card.js", client.keys[0])
	}

	if _, err := r.Read(ctx, "nope.js"); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("Read(nope.js) error = %v, want ErrNotFound", err)
	}

	r.WithMaxSize(4)
	if _, err := r.Read(ctx, "big.js"); err == nil {
		t.Error("Read(big.js) succeeded past the size limit")
	}
}

type countingReader struct {
	loader.Reader
	reads atomic.Int32
}

func (c *countingReader) Read(ctx context.Context, name string) ([]byte, error) {
	c.reads.Add(1)
	return c.Reader.Read(ctx, name)
}

func TestCacheDeduplicates(t *testing.T) {
	r := &countingReader{Reader: loader.NewMapReader(map[string]string{"a.js": "a"})}
	loop := scheduler.NewLoop()
	c := loader.NewCache(context.Background(), r, loop)

	first := c.Fetch("a.js")
	second := c.Fetch("a.js")
	if first != second {
		t.Error("concurrent fetches did not share a task")
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after settling, want 0", c.Pending())
	}
	if string(first.Value().([]byte)) != "a" {
		t.Errorf("Value = %v", first.Value())
	}
	if third := c.Fetch("a.js"); third != first {
		t.Error("completed fetch was not cached")
	}
	if got := r.reads.Load(); got != 1 {
		t.Errorf("reads = %d, want 1", got)
	}

	c.Reset()
	c.Fetch("a.js")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Reads() != 2 {
		t.Errorf("Reads() = %d after Reset, want 2", c.Reads())
	}
}

func TestCacheForgetsFailures(t *testing.T) {
	mem := loader.NewMapReader(nil)
	loop := scheduler.NewLoop()
	c := loader.NewCache(context.Background(), mem, loop)

	failed := c.Fetch("late.js")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(failed.Err(), loader.ErrNotFound) {
		t.Fatalf("Err = %v, want ErrNotFound", failed.Err())
	}

	mem.Put("late.js", "ok")
	retry := c.Fetch("late.js")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if retry == failed || retry.Err() != nil {
		t.Errorf("retry = %v, %v", retry.Value(), retry.Err())
	}
}

func TestModuleLoader(t *testing.T) {
	mem := loader.NewMapReader(map[string]string{
		"build/x-card.js":      "export{}",
		"styles/sc-x-card.css": ".card{}",
		"build/x-plain.js":     "export{}",
	})
	loop := scheduler.NewLoop()
	l := loader.NewModuleLoader(loader.NewCache(context.Background(), mem, loop))

	tests := []struct {
		name      string
		desc      *component.Descriptor
		wantErr   bool
		wantNil   bool
		wantStyle string
	}{
		{
			name:      "module and style",
			desc:      &component.Descriptor{Tag: "x-card", Module: "build/x-card.js", Styles: map[string]string{"": "sc-x-card"}},
			wantStyle: ".card{}",
		},
		{
			name: "style file missing",
			desc: &component.Descriptor{Tag: "x-plain", Module: "build/x-plain.js", Styles: map[string]string{"": "sc-x-plain"}},
		},
		{
			name:    "module missing",
			desc:    &component.Descriptor{Tag: "x-gone", Module: "build/x-gone.js"},
			wantErr: true,
		},
		{
			name:    "nothing to load",
			desc:    &component.Descriptor{Tag: "x-inline"},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := l.Load(tt.desc, "")
			if tt.wantNil {
				if task != nil {
					t.Errorf("Load() = %v, want nil", task)
				}
				return
			}
			if err := loop.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			if !task.Done() {
				t.Fatal("task did not settle")
			}
			if tt.wantErr {
				if !errors.Is(task.Err(), loader.ErrNotFound) {
					t.Errorf("Err = %v, want ErrNotFound", task.Err())
				}
				return
			}
			if task.Err() != nil {
				t.Fatalf("Err = %v", task.Err())
			}
			b := task.Value().(*component.Bundle)
			if b.Module != tt.desc.Module || string(b.Source) != "export{}" {
				t.Errorf("bundle = %+v", b)
			}
			if b.Style != tt.wantStyle {
				t.Errorf("Style = %q, want %q", b.Style, tt.wantStyle)
			}
		})
	}
}
