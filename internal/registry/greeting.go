package registry

import (
	"golang.org/x/text/language"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/vdom"
)

var (
	greetingTags = []language.Tag{
		language.English,
		language.French,
		language.Spanish,
		language.German,
		language.Arabic,
		language.Hebrew,
	}
	greetingWords = []string{"Hello", "Bonjour", "Hola", "Hallo", "مرحبا", "שלום"}

	greetingMatcher = language.NewMatcher(greetingTags)
)

// greetingWord picks the greeting for lang, falling back to English.
func greetingWord(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return greetingWords[0]
	}
	_, i, conf := greetingMatcher.Match(tag)
	if conf == language.No {
		return greetingWords[0]
	}
	return greetingWords[i]
}

type greeting struct {
	Name string
	Lang string
}

func (g *greeting) Render() *vdom.Node {
	name := g.Name
	if name == "" {
		name = "world"
	}
	return vdom.Root(vdom.P(vdom.Class("greeting"), vdom.Textf("%s, %s!", greetingWord(g.Lang), name)))
}

func greetingDescriptor() *component.Descriptor {
	return &component.Descriptor{
		Tag: "x-greeting",
		Members: []component.Member{
			component.Prop[greeting, string]("name", func(g *greeting) *string { return &g.Name }),
			component.Context[greeting, string]("lang", "lang", func(g *greeting) *string { return &g.Lang }),
		},
		New: func() any { return &greeting{} },
	}
}
