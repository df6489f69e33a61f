package hydrate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/loader"
	"github.com/vango-dev/vessel/pkg/vdom"
)

type greeting struct {
	Name string
}

func (g *greeting) Render() *vdom.Node {
	return vdom.Root(
		vdom.P(vdom.Class("card"), vdom.Textf("Hello %s", g.Name)),
		vdom.A(vdom.Href("/docs"), "Docs"),
	)
}

type stuck struct{}

func (s *stuck) WillLoad() *async.Task {
	t, _ := async.New()
	return t
}

func (s *stuck) Render() *vdom.Node { return vdom.Root("never") }

func greetingDesc() *component.Descriptor {
	return &component.Descriptor{
		Tag: "x-greet",
		Members: []component.Member{
			component.Prop[greeting, string]("name", func(g *greeting) *string { return &g.Name }),
		},
		New: func() any { return &greeting{} },
	}
}

func newDriver(t *testing.T, reader loader.Reader, descs ...*component.Descriptor) *Driver {
	t.Helper()
	reg := component.NewRegistry()
	for _, d := range descs {
		require.NoError(t, reg.Define(d))
	}
	opts := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	if reader != nil {
		opts = append(opts, WithReader(reader))
	}
	return New(reg, opts...)
}

func TestHydrateRendersHosts(t *testing.T) {
	d := newDriver(t, nil, greetingDesc())
	input := `<!DOCTYPE html><html><head></head><body><x-greet name="Ada"></x-greet></body></html>`

	res, err := d.Hydrate(context.Background(), input, Options{URL: "https://example.com/"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Hosts)
	assert.False(t, res.Failed())
	assert.Empty(t, res.Diagnostics)
	assert.Contains(t, res.HTML, `ssrv="1"`)
	assert.Contains(t, res.HTML, `class="card" ssrc="1.0"`)
	assert.Contains(t, res.HTML, `<!--s.1.0-->Hello Ada<!--/-->`)
	assert.Contains(t, res.HTML, `hydrated`)

	require.Len(t, res.Anchors, 1)
	assert.Equal(t, "/docs", res.Anchors[0]["href"])
}

func TestHydrateWithoutHostsReturnsInput(t *testing.T) {
	d := newDriver(t, nil, greetingDesc())
	input := "<html><body>\n  <p>plain   page</p>\n</body></html>"

	res, err := d.Hydrate(context.Background(), input, Options{CollapseWhitespace: true, Canonical: true, URL: "https://example.com/"})
	require.NoError(t, err)

	assert.Equal(t, input, res.HTML)
	assert.Zero(t, res.Hosts)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.LevelInfo, res.Diagnostics[0].Level)
	assert.Equal(t, diag.CategoryHydrate, res.Diagnostics[0].Category)
}

func TestHydrateBundleFailure(t *testing.T) {
	desc := greetingDesc()
	desc.Module = "build/x-greet.js"
	d := newDriver(t, loader.NewMapReader(nil), desc)

	res, err := d.Hydrate(context.Background(), `<x-greet name="Ada"></x-greet>`, Options{})
	require.NoError(t, err)

	assert.True(t, res.Failed())
	assert.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.CategoryBundleLoad, res.Diagnostics[0].Category)
	assert.Contains(t, res.HTML, "Hydrate Error")
	assert.NotContains(t, res.HTML, "Hello Ada")
}

func TestHydrateAttachesStyles(t *testing.T) {
	desc := greetingDesc()
	desc.Module = "build/x-greet.js"
	desc.Styles = map[string]string{"": "sc-x-greet"}
	reader := loader.NewMapReader(map[string]string{
		"build/x-greet.js":      "export{}",
		"styles/sc-x-greet.css": ".card{color:red}",
	})
	d := newDriver(t, reader, desc)

	res, err := d.Hydrate(context.Background(), `<x-greet name="Ada"></x-greet><x-greet name="Bo"></x-greet>`, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Hosts)
	assert.Equal(t, map[string]string{"sc-x-greet": ".card{color:red}"}, res.Styles)
	assert.Equal(t, 1, strings.Count(res.HTML, `<style sty-id="sc-x-greet">`))
	assert.Contains(t, res.HTML, `ssrv="2"`)
}

func TestHydrateTimesOut(t *testing.T) {
	d := newDriver(t, nil, &component.Descriptor{
		Tag: "x-stuck",
		New: func() any { return &stuck{} },
	})

	res, err := d.Hydrate(context.Background(), `<x-stuck></x-stuck>`, Options{Timeout: time.Second})
	require.NoError(t, err)

	assert.True(t, res.Failed())
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.CategoryTimeout, res.Diagnostics[len(res.Diagnostics)-1].Category)
	assert.Contains(t, res.HTML, "Hydrate timed out")
}

func TestHydrateCancelled(t *testing.T) {
	d := newDriver(t, nil, greetingDesc())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := d.Hydrate(ctx, `<x-greet></x-greet>`, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestHydrateWithoutRegistry(t *testing.T) {
	_, err := New(nil).Hydrate(context.Background(), "", Options{})
	assert.ErrorIs(t, err, ErrNoRegistry)
}

func TestHydrateLocale(t *testing.T) {
	d := newDriver(t, nil, greetingDesc())

	res, err := d.Hydrate(context.Background(), `<x-greet></x-greet>`, Options{Lang: "ar"})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<html lang="ar" dir="rtl">`)

	res, err = d.Hydrate(context.Background(), `<x-greet></x-greet>`, Options{Lang: "en-us", Dir: "LTR"})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<html lang="en-US" dir="ltr">`)
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		lang, dir         string
		wantLang, wantDir string
	}{
		{"", "", "", ""},
		{"", "RTL", "", "rtl"},
		{"he", "", "he", "rtl"},
		{"fa-IR", "", "fa-IR", "rtl"},
		{"en-us", "", "en-US", ""},
		{"ar", "ltr", "ar", "ltr"},
		{"not a tag!", "", "not a tag!", ""},
	}
	for _, tt := range tests {
		lang, dir := normalizeLocale(tt.lang, tt.dir)
		assert.Equal(t, tt.wantLang, lang, "lang for %q", tt.lang)
		assert.Equal(t, tt.wantDir, dir, "dir for %q", tt.lang)
	}
}

func TestHydratePostProcessing(t *testing.T) {
	reader := loader.NewMapReader(map[string]string{"loader.js": "boot()"})
	d := newDriver(t, reader, greetingDesc())
	input := `<html><head><script src="/loader.js"></script>` +
		`<style>.card{color:red}.unused{color:blue}span b{x:y}</style></head>` +
		"<body><x-greet name=\"Ada\"></x-greet>\n\n   <pre>  keep  </pre></body></html>"

	res, err := d.Hydrate(context.Background(), input, Options{
		URL:                "https://example.com/page?q=1#top",
		Canonical:          true,
		PruneCSS:           true,
		InlineLoader:       true,
		LoaderScript:       "/loader.js",
		CollapseWhitespace: true,
	})
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `<link rel="canonical" href="https://example.com/page"/>`)
	assert.Contains(t, res.HTML, `<script>boot()</script>`)
	assert.Contains(t, res.HTML, `<style>.card{color:red}</style>`)
	assert.Contains(t, res.HTML, "</x-greet> <pre>  keep  </pre>")
	assert.Empty(t, res.Diagnostics)
}

func TestCanonicalUpdatesExistingLink(t *testing.T) {
	d := newDriver(t, nil, greetingDesc())
	input := `<html><head><link rel="canonical" href="/old"></head><body><x-greet></x-greet></body></html>`

	res, err := d.Hydrate(context.Background(), input, Options{URL: "https://example.com/new", Canonical: true})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(res.HTML, `rel="canonical"`))
	assert.Contains(t, res.HTML, `href="https://example.com/new"`)
}

func TestInlineLoaderMissingScript(t *testing.T) {
	d := newDriver(t, loader.NewMapReader(nil), greetingDesc())
	input := `<html><head><script src="/loader.js"></script></head><body><x-greet></x-greet></body></html>`

	res, err := d.Hydrate(context.Background(), input, Options{InlineLoader: true, LoaderScript: "/loader.js"})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Contains(t, res.HTML, `<script src="/loader.js"></script>`)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.LevelWarn, res.Diagnostics[0].Level)
}

func TestPruneCSS(t *testing.T) {
	u := usage{
		tags:    map[string]bool{"html": true, "body": true, "div": true, "a": true, "x-card": true},
		classes: map[string]bool{"used": true, "on": true},
		ids:     map[string]bool{"main": true},
	}
	tests := []struct {
		name        string
		css         string
		want        string
		wantDropped int
	}{
		{
			name: "keeps used rules",
			css:  ".used{a:b}#main{c:d}x-card div{e:f}",
			want: ".used{a:b}#main{c:d}x-card div{e:f}",
		},
		{
			name:        "drops unused selectors from a list",
			css:         ".used, .gone { a: b }",
			want:        ".used{a:b}",
			wantDropped: 1,
		},
		{
			name:        "checks each compound after a combinator",
			css:         "div > .gone{a:b}div>.used{c:d}",
			want:        "div>.used{c:d}",
			wantDropped: 1,
		},
		{
			name: "keeps declaration values",
			css:  ".used{border:1px solid red;color:blue!important}",
			want: ".used{border:1px solid red;color:blue!important}",
		},
		{
			name:        "drops missing tags and ids",
			css:         "span{a:b}#other{c:d}a:hover{e:f}",
			want:        "a:hover{e:f}",
			wantDropped: 2,
		},
		{
			name:        "prunes inside media",
			css:         "@media (max-width: 10px){.gone{a:b}.used{c:d}}@media print{.gone{a:b}}",
			want:        "@media (max-width: 10px){.used{c:d}}",
			wantDropped: 2,
		},
		{
			name: "keeps other at-rules",
			css:  `@import "x.css";@keyframes spin{from{a:b}to{a:c}}`,
			want: `@import "x.css";@keyframes spin{from{a:b}to{a:c}}`,
		},
		{
			name:        "ignores pseudo-class arguments and comments",
			css:         "/* c */.used:not(.gone){a:b}div[data-x=\"{\"] .on{c:d}.on.gone{e:f}",
			want:        ".used:not(.gone){a:b}div[data-x=\"{\"] .on{c:d}",
			wantDropped: 1,
		},
		{
			name: "keeps escaped selectors",
			css:  `.md\:flex{a:b}`,
			want: `.md\:flex{a:b}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := pruneCSS(tt.css, u)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, " a b c ", collapse("\n  a \t b\r\n c  "))
	assert.Equal(t, "abc", collapse("abc"))
}
