package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vango-dev/vessel/pkg/hydrate"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vessel.yaml"

	// EnvPrefix prefixes environment overrides: VESSEL_SERVER_PORT sets
	// server.port.
	EnvPrefix = "VESSEL"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "0.0.0.0"

	// DefaultBundleDir is the default directory modules and styles are
	// read from.
	DefaultBundleDir = "build"
)

// ErrNoConfig is returned by LoadFile when the file does not exist.
var ErrNoConfig = errors.New("config: no " + ConfigFileName + " found")

// Config represents the complete vessel.yaml configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Hydrate HydrateConfig `mapstructure:"hydrate" yaml:"hydrate"`
	Bundles BundlesConfig `mapstructure:"bundles" yaml:"bundles"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`

	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
	Tracing         bool          `mapstructure:"tracing" yaml:"tracing"`
}

// HydrateConfig contains the default hydrate options.
type HydrateConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Mode               string        `mapstructure:"mode" yaml:"mode"`
	Lang               string        `mapstructure:"lang" yaml:"lang"`
	Canonical          bool          `mapstructure:"canonical" yaml:"canonical"`
	PruneCSS           bool          `mapstructure:"prune_css" yaml:"prune_css"`
	InlineLoader       bool          `mapstructure:"inline_loader" yaml:"inline_loader"`
	LoaderScript       string        `mapstructure:"loader_script" yaml:"loader_script"`
	CollapseWhitespace bool          `mapstructure:"collapse_whitespace" yaml:"collapse_whitespace"`
}

// BundlesConfig selects where component modules and styles come from.
// A non-empty S3.Bucket takes precedence over Dir.
type BundlesConfig struct {
	Dir string   `mapstructure:"dir" yaml:"dir"`
	S3  S3Config `mapstructure:"s3" yaml:"s3"`

	// Manifest names a JSON file, read from the same store, mapping
	// bundle paths to fingerprinted names.
	Manifest string `mapstructure:"manifest" yaml:"manifest"`
}

// S3Config contains the bucket bundles are read from.
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    4 << 20,
			Metrics:         true,
		},
		Hydrate: HydrateConfig{
			Timeout: hydrate.DefaultTimeout,
		},
		Bundles: BundlesConfig{
			Dir: DefaultBundleDir,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// newViper returns a viper instance seeded with the defaults so that every
// key can be overridden from the environment.
func newViper() *viper.Viper {
	v := viper.New()
	d := New()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("server.tracing", d.Server.Tracing)
	v.SetDefault("hydrate.timeout", d.Hydrate.Timeout)
	v.SetDefault("hydrate.mode", d.Hydrate.Mode)
	v.SetDefault("hydrate.lang", d.Hydrate.Lang)
	v.SetDefault("hydrate.canonical", d.Hydrate.Canonical)
	v.SetDefault("hydrate.prune_css", d.Hydrate.PruneCSS)
	v.SetDefault("hydrate.inline_loader", d.Hydrate.InlineLoader)
	v.SetDefault("hydrate.loader_script", d.Hydrate.LoaderScript)
	v.SetDefault("hydrate.collapse_whitespace", d.Hydrate.CollapseWhitespace)
	v.SetDefault("bundles.dir", d.Bundles.Dir)
	v.SetDefault("bundles.manifest", d.Bundles.Manifest)
	v.SetDefault("bundles.s3.bucket", d.Bundles.S3.Bucket)
	v.SetDefault("bundles.s3.prefix", d.Bundles.S3.Prefix)
	v.SetDefault("bundles.s3.region", d.Bundles.S3.Region)
	v.SetDefault("bundles.s3.endpoint", d.Bundles.S3.Endpoint)
	v.SetDefault("bundles.s3.path_style", d.Bundles.S3.PathStyle)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads vessel.yaml from dir. A missing file yields the defaults with
// environment overrides applied.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(dir, ConfigFileName))
	if errors.Is(err, ErrNoConfig) {
		return decode(newViper(), "")
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoConfig, filepath.Dir(path))
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return decode(v, path)
}

func decode(v *viper.Viper, path string) (*Config, error) {
	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.configPath = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must not be negative"))
	}
	if c.Hydrate.Timeout < 0 {
		errs = append(errs, fmt.Errorf("hydrate.timeout must not be negative"))
	}
	if c.Hydrate.InlineLoader && c.Hydrate.LoaderScript == "" {
		errs = append(errs, fmt.Errorf("hydrate.inline_loader requires hydrate.loader_script"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BundleDir returns the bundle directory, relative to the config file
// when not absolute.
func (c *Config) BundleDir() string {
	dir := c.Bundles.Dir
	if dir == "" || filepath.IsAbs(dir) || c.Dir() == "" {
		return dir
	}
	return filepath.Join(c.Dir(), dir)
}

// HydrateOptions returns the default options for Hydrate calls.
func (c *Config) HydrateOptions() hydrate.Options {
	return hydrate.Options{
		Lang:               c.Hydrate.Lang,
		Mode:               c.Hydrate.Mode,
		Timeout:            c.Hydrate.Timeout,
		Canonical:          c.Hydrate.Canonical,
		PruneCSS:           c.Hydrate.PruneCSS,
		InlineLoader:       c.Hydrate.InlineLoader,
		LoaderScript:       c.Hydrate.LoaderScript,
		CollapseWhitespace: c.Hydrate.CollapseWhitespace,
	}
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return l, nil
}

// Exists reports whether dir contains a vessel.yaml.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the first directory that
// contains vessel.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent", ErrNoConfig, startDir)
		}
		dir = parent
	}
}
