package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultBundleDir, cfg.Bundles.Dir)
	assert.True(t, cfg.Server.Metrics)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Hydrate.Timeout)
	assert.Empty(t, cfg.Path())
	assert.Empty(t, cfg.Dir())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
server:
  port: 9090
  metrics: false
hydrate:
  timeout: 5s
  lang: fr
  prune_css: true
  inline_loader: true
  loader_script: /build/loader.js
bundles:
  dir: assets
  manifest: manifest.json
  s3:
    bucket: my-assets
    prefix: build/
log:
  level: debug
  format: json
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.False(t, cfg.Server.Metrics)
	assert.Equal(t, 5*time.Second, cfg.Hydrate.Timeout)
	assert.Equal(t, "my-assets", cfg.Bundles.S3.Bucket)
	assert.Equal(t, "manifest.json", cfg.Bundles.Manifest)
	assert.Equal(t, filepath.Join(dir, "assets"), cfg.BundleDir())
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	opts := cfg.HydrateOptions()
	assert.Equal(t, "fr", opts.Lang)
	assert.True(t, opts.PruneCSS)
	assert.True(t, opts.InlineLoader)
	assert.Equal(t, "/build/loader.js", opts.LoaderScript)
	assert.Equal(t, 5*time.Second, opts.Timeout)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), ConfigFileName))
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "server:\n  port: 9090\n")
	t.Setenv("VESSEL_SERVER_PORT", "7070")
	t.Setenv("VESSEL_HYDRATE_COLLAPSE_WHITESPACE", "true")
	t.Setenv("VESSEL_BUNDLES_S3_REGION", "eu-west-1")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Hydrate.CollapseWhitespace)
	assert.Equal(t, "eu-west-1", cfg.Bundles.S3.Region)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative timeout", func(c *Config) { c.Hydrate.Timeout = -time.Second }, "hydrate.timeout"},
		{"inline without script", func(c *Config) { c.Hydrate.InlineLoader = true }, "loader_script"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidFileFailsValidation(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log:\n  format: xml\n")
	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "log.format")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	want, _ := filepath.Abs(root)
	assert.Equal(t, want, got)
	assert.True(t, Exists(root))
	assert.False(t, Exists(nested))
}
