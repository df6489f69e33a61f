package vdom

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/vango-dev/vessel/pkg/dom"
)

// permutation orders the keys 0..n-1 by the given weights.
func permutation(weights []int) []string {
	idx := make([]int, len(weights))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return weights[idx[a]] < weights[idx[b]] })
	keys := make([]string, len(idx))
	for i, v := range idx {
		keys[i] = strconv.Itoa(v)
	}
	return keys
}

func TestKeyedReorderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("keyed reorder matches target and never creates", prop.ForAll(
		func(weights []int) bool {
			doc, err := dom.ParseString("<html><body><x-host></x-host></body></html>")
			if err != nil {
				return false
			}
			host := doc.FindByTag("x-host")
			p := NewPatcher(doc)

			from := permutation(make([]int, len(weights)))
			to := permutation(weights)
			old := p.Patch(&Node{Elm: host}, keyedList(from...), PatchOptions{})
			doc.ResetStats()
			p.Patch(old, keyedList(to...), PatchOptions{IsUpdate: true})

			want := "<ul><li>" + strings.Join(to, "</li><li>") + "</li></ul>"
			return doc.InnerHTML(host) == want &&
				doc.Stats().Created == 0 &&
				doc.Stats().Removed == 0 &&
				doc.Stats().Moved < len(weights)
		},
		gen.SliceOfN(8, gen.IntRange(0, 100)),
	))

	properties.Property("re-rendering the same list is a no-op", prop.ForAll(
		func(weights []int) bool {
			doc, err := dom.ParseString("<html><body><x-host></x-host></body></html>")
			if err != nil {
				return false
			}
			host := doc.FindByTag("x-host")
			p := NewPatcher(doc)
			keys := permutation(weights)
			old := p.Patch(&Node{Elm: host}, keyedList(keys...), PatchOptions{})
			doc.ResetStats()
			p.Patch(old, keyedList(keys...), PatchOptions{IsUpdate: true})
			return doc.Stats().Mutations() == 0
		},
		gen.SliceOfN(6, gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
