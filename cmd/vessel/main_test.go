package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vessel/pkg/hydrate"
)

const page = `<!DOCTYPE html><html><head></head><body>
<x-greeting name="Ada"></x-greeting>
</body></html>`

// execute runs the root command with args in an isolated config directory.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writePage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestHydrateFile(t *testing.T) {
	path := writePage(t, page)
	stdout, _, err := execute(t, "", "hydrate", path, "--lang", "fr")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Bonjour, Ada!")
	assert.Contains(t, stdout, `<html lang="fr">`)
	assert.Contains(t, stdout, `ssrv="1"`)
}

func TestHydrateStdinJSON(t *testing.T) {
	stdout, _, err := execute(t, page, "hydrate", "--format", "json", "--url", "https://example.com/p?x=1", "--canonical")
	require.NoError(t, err)

	var res hydrate.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, 1, res.Hosts)
	assert.Contains(t, res.HTML, `<link rel="canonical" href="https://example.com/p"/>`)
}

func TestHydrateYAML(t *testing.T) {
	stdout, _, err := execute(t, page, "hydrate", "-f", "yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "hosts: 1")
	assert.Contains(t, stdout, "html:")
}

func TestHydrateOutputAndDiff(t *testing.T) {
	path := writePage(t, page)
	target := filepath.Join(t.TempDir(), "out.html")

	stdout, stderr, err := execute(t, "", "hydrate", path, "-o", target, "--diff")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hello, Ada!")

	assert.Contains(t, stderr, "Wrote "+target)
	assert.Contains(t, stderr, `- <x-greeting name="Ada"></x-greeting>`)
	assert.Contains(t, stderr, "+ ")
}

func TestHydrateUnknownFormat(t *testing.T) {
	_, _, err := execute(t, page, "hydrate", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestHydrateWatchNeedsFile(t *testing.T) {
	_, _, err := execute(t, page, "hydrate", "--watch")
	assert.ErrorContains(t, err, "--watch needs a file")
}

func TestHydrateMissingFile(t *testing.T) {
	_, _, err := execute(t, "", "hydrate", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestHydrateUsesConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vessel.yaml"), []byte("hydrate:\n  lang: es\n"), 0644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", dir, "hydrate"})
	cmd.SetIn(strings.NewReader(page))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Hola, Ada!")
}

func TestHydrateBadLogLevel(t *testing.T) {
	_, _, err := execute(t, page, "--log-level", "loud", "hydrate")
	assert.ErrorContains(t, err, "log.level")
}

func TestLineDiff(t *testing.T) {
	got := lineDiff("a\nb\nc\n", "a\nB\nc\n", false)
	assert.Equal(t, "  a\n- b\n+ B\n  c\n", got)
	assert.Empty(t, lineDiff("", "", false))
}

func TestComponents(t *testing.T) {
	stdout, _, err := execute(t, "", "components")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "TAG"))
	assert.Contains(t, stdout, "x-counter")
	assert.Contains(t, stdout, "count-changed")
	assert.Contains(t, stdout, "sc-x-card")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestHydrateBundleManifest(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build", "styles")
	require.NoError(t, os.MkdirAll(build, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vessel.yaml"),
		[]byte("bundles:\n  dir: build\n  manifest: manifest.json\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "manifest.json"),
		[]byte(`{"styles/sc-x-card.css": "styles/sc-x-card.abc123.css"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(build, "sc-x-card.abc123.css"),
		[]byte(".card-body{color:teal}"), 0644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", dir, "hydrate"})
	cmd.SetIn(strings.NewReader(`<x-card heading="Hi"><p>body</p></x-card>`))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), ".card-body{color:teal}")
}

func TestHydrateMissingManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vessel.yaml"),
		[]byte("bundles:\n  manifest: manifest.json\n"), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", dir, "hydrate"})
	cmd.SetIn(strings.NewReader(page))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "bundle manifest")
}
