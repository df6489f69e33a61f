package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUsesTemplate(t *testing.T) {
	cause := errors.New("boom")
	d := New(CategoryPreLoadHook, "x-card", cause)

	if d.Code != "V004" {
		t.Errorf("Code = %q, want V004", d.Code)
	}
	if d.Level != LevelError {
		t.Errorf("Level = %v, want error", d.Level)
	}
	if d.Tag != "x-card" {
		t.Errorf("Tag = %q, want x-card", d.Tag)
	}
	if d.Message != "boom" {
		t.Errorf("Message = %q, want boom", d.Message)
	}
	if !errors.Is(d, cause) {
		t.Error("errors.Is(d, cause) = false, want true")
	}
}

func TestEveryCategoryRegistered(t *testing.T) {
	categories := []Category{
		CategoryBundleLoad, CategoryEventReplay, CategoryPreLoadHook, CategoryPostLoadHook,
		CategoryInstanceInit, CategoryRender, CategoryPreUpdateHook, CategoryPostUpdateHook,
		CategoryUnload, CategoryEvent, CategoryWatch, CategoryHydrate, CategoryTimeout,
	}
	codes := map[string]Category{}
	for _, c := range categories {
		tmpl, ok := Lookup(c)
		if !ok {
			t.Errorf("category %s not registered", c)
			continue
		}
		if prev, dup := codes[tmpl.Code]; dup {
			t.Errorf("code %s used by %s and %s", tmpl.Code, prev, c)
		}
		codes[tmpl.Code] = c
	}
}

func TestListFilters(t *testing.T) {
	var l List
	l.Report(Newf(CategoryHydrate, LevelInfo, "%d hosts", 0))
	if l.HasErrors() {
		t.Error("HasErrors() = true with only info")
	}
	l.Report(New(CategoryRender, "x-a", errors.New("bad")))

	if !l.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if n := len(l.ByCategory(CategoryRender)); n != 1 {
		t.Errorf("ByCategory(Render) = %d, want 1", n)
	}
	if n := l.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
}

func TestFormatPlain(t *testing.T) {
	out := Format([]Diagnostic{New(CategoryBundleLoad, "x-card", errors.New("missing module"))})

	for _, want := range []string{"ERROR", "V001", "Bundle load failed", "<x-card>", "missing module"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Format() contains escape codes: %q", out)
	}
}

func TestFailureHTMLEscapes(t *testing.T) {
	out := FailureHTML([]Diagnostic{
		New(CategoryBundleLoad, "x-card", errors.New("<script>")),
		Newf(CategoryHydrate, LevelInfo, "hidden"),
	})

	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("message not escaped: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("info diagnostics should not appear in the failure document")
	}
	if !strings.HasPrefix(out, "<!doctype html>") {
		t.Errorf("output is not a document: %q", out[:20])
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if len(lines) != len(want) {
		t.Fatalf("wrapText = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
