package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vessel/internal/config"
	"github.com/vango-dev/vessel/internal/dev"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/hydrate"
)

// errHydrateFailed is returned when the result carries the failure
// document.
var errHydrateFailed = errors.New("hydrate failed")

type hydrateOptions struct {
	*rootOptions

	url          string
	lang         string
	dir          string
	mode         string
	timeout      time.Duration
	canonical    bool
	pruneCSS     bool
	inlineLoader bool
	loaderScript string
	collapse     bool

	output string
	format string
	diff   bool
	watch  bool
}

func hydrateCmd(root *rootOptions) *cobra.Command {
	o := &hydrateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "hydrate [file]",
		Short: "Hydrate an HTML document",
		Long: `Hydrate renders every component in an HTML document and prints the
result. The document is read from file, or from stdin when file is
omitted or "-".

Flags left unset fall back to the hydrate section of vessel.yaml.

Formats:
  html   the hydrated document (default)
  json   the full result, including diagnostics and anchors
  yaml   the full result as YAML

Examples:
  vessel hydrate page.html
  vessel hydrate page.html --url=https://example.com/ --canonical
  vessel hydrate page.html --format=yaml
  cat page.html | vessel hydrate --lang=ar
  vessel hydrate page.html --watch --diff`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return o.run(cmd, input)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.url, "url", "", "Document URL")
	f.StringVar(&o.lang, "lang", "", "Document language (sets lang and derives dir)")
	f.StringVar(&o.dir, "dir", "", "Text direction (ltr or rtl)")
	f.StringVar(&o.mode, "mode", "", "Rendering mode used to select component styles")
	f.DurationVar(&o.timeout, "timeout", 0, "Bound on the whole run")
	f.BoolVar(&o.canonical, "canonical", false, "Insert or update the canonical link")
	f.BoolVar(&o.pruneCSS, "prune-css", false, "Drop CSS rules no element matches")
	f.BoolVar(&o.inlineLoader, "inline-loader", false, "Inline the loader script")
	f.StringVar(&o.loaderScript, "loader-script", "", "Src of the loader script to inline")
	f.BoolVar(&o.collapse, "collapse-whitespace", false, "Collapse whitespace between elements")
	f.StringVarP(&o.output, "output", "o", "", "Write the result to a file instead of stdout")
	f.StringVarP(&o.format, "format", "f", "html", "Output format (html, json, yaml)")
	f.BoolVar(&o.diff, "diff", false, "Print a line diff of the input and the hydrated document")
	f.BoolVarP(&o.watch, "watch", "w", false, "Hydrate again whenever the document or a bundle changes")

	return cmd
}

// options merges the flags that were set over the configured defaults.
func (o *hydrateOptions) options(cmd *cobra.Command, cfg *config.Config) hydrate.Options {
	opts := cfg.HydrateOptions()
	f := cmd.Flags()
	if f.Changed("url") {
		opts.URL = o.url
	}
	if f.Changed("lang") {
		opts.Lang = o.lang
	}
	if f.Changed("dir") {
		opts.Dir = o.dir
	}
	if f.Changed("mode") {
		opts.Mode = o.mode
	}
	if f.Changed("timeout") {
		opts.Timeout = o.timeout
	}
	if f.Changed("canonical") {
		opts.Canonical = o.canonical
	}
	if f.Changed("prune-css") {
		opts.PruneCSS = o.pruneCSS
	}
	if f.Changed("inline-loader") {
		opts.InlineLoader = o.inlineLoader
	}
	if f.Changed("loader-script") {
		opts.LoaderScript = o.loaderScript
	}
	if f.Changed("collapse-whitespace") {
		opts.CollapseWhitespace = o.collapse
	}
	return opts
}

func (o *hydrateOptions) run(cmd *cobra.Command, input string) error {
	switch o.format {
	case "html", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
	if o.watch && input == "-" {
		return errors.New("--watch needs a file")
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := newDriver(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	opts := o.options(cmd, cfg)

	err = o.once(ctx, cmd, driver, input, opts)
	if !o.watch {
		return err
	}
	if err != nil && !errors.Is(err, errHydrateFailed) {
		errorMsg(stderr, "%s", err)
	}
	return o.watchLoop(ctx, cmd, cfg, driver, input, opts)
}

// once hydrates input a single time and writes every requested output.
func (o *hydrateOptions) once(ctx context.Context, cmd *cobra.Command, driver *hydrate.Driver, input string, opts hydrate.Options) error {
	src, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}
	res, err := driver.Hydrate(ctx, src, opts)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if len(res.Diagnostics) > 0 {
		if err := diag.NewFormatter(stderr).Write(stderr, res.Diagnostics); err != nil {
			return err
		}
	}

	out, err := encodeResult(res, o.format)
	if err != nil {
		return err
	}
	if o.output != "" {
		if err := os.WriteFile(o.output, out, 0644); err != nil {
			return fmt.Errorf("write %s: %w", o.output, err)
		}
		success(stderr, "Wrote %s (%d hosts in %s)", o.output, res.Hosts, res.Duration.Round(time.Millisecond))
	} else if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}

	if o.diff {
		fmt.Fprint(stderr, lineDiff(src, res.HTML, diffColor(stderr)))
	}
	if res.Failed() {
		return errHydrateFailed
	}
	return nil
}

// watchLoop hydrates again on every change to the document, the bundle
// directory or vessel.yaml, until ctx is done.
func (o *hydrateOptions) watchLoop(ctx context.Context, cmd *cobra.Command, cfg *config.Config, driver *hydrate.Driver, input string, opts hydrate.Options) error {
	stderr := cmd.ErrOrStderr()
	paths := []string{input}
	if dir := cfg.BundleDir(); dir != "" && cfg.Bundles.S3.Bucket == "" {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			paths = append(paths, dir)
		}
	}
	if cfg.Path() != "" {
		paths = append(paths, cfg.Path())
	}

	w := dev.NewWatcher(dev.WatcherConfig{Paths: paths})
	w.OnChange(func(c dev.Change) {
		if c.Type == dev.ChangeConfig {
			warn(stderr, "%s changed; restart to apply it", filepath.Base(c.Path))
			return
		}
		info(stderr, "%s changed", c.Path)
		if err := o.once(ctx, cmd, driver, input, opts); err != nil {
			errorMsg(stderr, "%s", err)
		}
	})

	info(stderr, "Watching %d paths. Press Ctrl+C to stop.", len(paths))
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// encodeResult renders res in format.
func encodeResult(res *hydrate.Result, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(res)
	default:
		return []byte(res.HTML), nil
	}
}
