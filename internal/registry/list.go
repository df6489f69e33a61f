package registry

import (
	"strings"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/vdom"
)

type list struct {
	Items string
}

// entries splits Items on commas, dropping blanks and repeats so every
// entry can key its row.
func (l *list) entries() []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range strings.Split(l.Items, ",") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func (l *list) Render() *vdom.Node {
	return vdom.Root(
		vdom.Ul(vdom.Class("list"), vdom.Range(l.entries(), func(item string, _ int) *vdom.Node {
			return vdom.Li(vdom.Key(item), item)
		})),
	)
}

func listDescriptor() *component.Descriptor {
	return &component.Descriptor{
		Tag: "x-list",
		Members: []component.Member{
			component.Prop[list, string]("items", func(l *list) *string { return &l.Items }),
		},
		New: func() any { return &list{} },
	}
}
