package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/host"
	"github.com/vango-dev/vessel/pkg/hydrate"
	"github.com/vango-dev/vessel/pkg/loader"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDriver(t *testing.T) *hydrate.Driver {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))
	return hydrate.New(reg, hydrate.WithReader(Reader()), hydrate.WithLogger(quietLogger()))
}

func TestRegister(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{"x-card", "x-counter", "x-greeting", "x-list"}, Tags())

	err := Register(reg)
	assert.True(t, errors.Is(err, component.ErrDuplicateTag), "second Register error = %v", err)

	// A fresh registry accepts fresh descriptors.
	assert.NoError(t, Register(component.NewRegistry()))
}

func TestReaderServesEveryBundle(t *testing.T) {
	r := Reader()
	ctx := context.Background()
	for _, d := range Descriptors() {
		if d.Module != "" {
			_, err := r.Read(ctx, d.Module)
			assert.NoError(t, err, "module of %s", d.Tag)
		}
		if id := d.StyleID(""); id != "" {
			css, err := r.Read(ctx, loader.DefaultStylePath(id))
			assert.NoError(t, err, "style of %s", d.Tag)
			assert.NotEmpty(t, css)
		}
	}
	_, err := r.Read(ctx, "styles/sc-x-missing.css")
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

func TestCardProjectsSlots(t *testing.T) {
	d := newDriver(t)
	res, err := d.Hydrate(context.Background(),
		`<x-card heading="Plans"><p>Pick one</p><small slot="footer">Billed monthly</small></x-card>`,
		hydrate.Options{})
	require.NoError(t, err)

	assert.False(t, res.Failed(), "diagnostics: %v", res.Diagnostics)
	assert.Equal(t, 1, res.Hosts)
	assert.Contains(t, res.HTML, "Plans")
	assert.Contains(t, res.HTML, "<p>Pick one</p>")
	assert.Contains(t, res.HTML, `<small slot="footer">Billed monthly</small>`)
	assert.Contains(t, res.HTML, `sty-id="sc-x-card"`)
	assert.Contains(t, res.Styles, "sc-x-card")
}

func TestGreetingUsesLang(t *testing.T) {
	d := newDriver(t)
	tests := []struct {
		lang string
		want string
	}{
		{"", "Hello, Ada!"},
		{"fr-CA", "Bonjour, Ada!"},
		{"es", "Hola, Ada!"},
		{"ja", "Hello, Ada!"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			res, err := d.Hydrate(context.Background(), `<x-greeting name="Ada"></x-greeting>`, hydrate.Options{Lang: tt.lang})
			require.NoError(t, err)
			assert.Contains(t, res.HTML, tt.want)
		})
	}
}

func TestGreetingWord(t *testing.T) {
	assert.Equal(t, "Hallo", greetingWord("de-AT"))
	assert.Equal(t, "שלום", greetingWord("he"))
	assert.Equal(t, "Hello", greetingWord("not a tag!"))
}

func TestListEntries(t *testing.T) {
	l := &list{Items: " a, b,,a , c "}
	assert.Equal(t, []string{"a", "b", "c"}, l.entries())
	assert.Empty(t, (&list{}).entries())
}

type recorder struct{ events []*dom.Event }

func (r *recorder) HandleEvent(ev *dom.Event) { r.events = append(r.events, ev) }

func TestCounter(t *testing.T) {
	doc, err := dom.ParseString(`<html><head></head><body><x-counter count="2" step="3"></x-counter></body></html>`)
	require.NoError(t, err)
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))
	rt := host.New(doc, reg, host.WithLogger(quietLogger()))
	rt.Define(doc)
	rt.Upgrade(doc.Body())
	run := func() {
		t.Helper()
		require.NoError(t, rt.Loop().Run(context.Background()))
	}
	run()

	el := doc.FindByTag("x-counter")
	require.NotNil(t, el)
	assert.Equal(t, "2", strings.TrimSpace(doc.TextContent(el)))

	rec := &recorder{}
	doc.AddEventListener(el, "count-changed", rec, dom.ListenerOptions{})

	rt.Dispatch(el, dom.NewEvent("click", nil))
	run()
	assert.Equal(t, "5", doc.TextContent(el))
	require.Len(t, rec.events, 1)
	assert.Equal(t, float64(5), rec.events[0].Detail)

	call := rt.Call(el, "increment")
	run()
	require.NoError(t, call.Err())
	assert.Equal(t, float64(8), call.Value())
	assert.Equal(t, "8", doc.TextContent(el))

	rt.SetProperty(el, "disabled", true)
	run()
	rt.Dispatch(el, dom.NewEvent("click", nil))
	run()
	assert.Equal(t, "8", doc.TextContent(el))
	assert.Len(t, rec.events, 1)
}
