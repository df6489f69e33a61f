package registry

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/loader"
)

//go:embed assets
var assets embed.FS

// Descriptors returns fresh descriptors for every built-in component.
// Registries take ownership of what they define, so each call builds new
// values.
func Descriptors() []*component.Descriptor {
	return []*component.Descriptor{
		cardDescriptor(),
		counterDescriptor(),
		greetingDescriptor(),
		listDescriptor(),
	}
}

// Tags returns the tags of the built-in components.
func Tags() []string {
	descs := Descriptors()
	tags := make([]string, len(descs))
	for i, d := range descs {
		tags[i] = d.Tag
	}
	return tags
}

// Register defines every built-in component in reg.
func Register(reg *component.Registry) error {
	for _, d := range Descriptors() {
		if err := reg.Define(d); err != nil {
			return fmt.Errorf("registry: %w", err)
		}
	}
	return nil
}

// FS returns the embedded bundle tree.
func FS() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Reader serves the embedded modules and styles.
func Reader() loader.Reader {
	return loader.NewFSReader(FS())
}
