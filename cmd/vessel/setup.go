package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vessel/internal/config"
	"github.com/vango-dev/vessel/internal/registry"
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/hydrate"
	"github.com/vango-dev/vessel/pkg/loader"
	"github.com/vango-dev/vessel/pkg/metrics"
)

type rootOptions struct {
	configDir string
	logLevel  string
}

// loadConfig loads vessel.yaml from --config, or from the nearest parent
// of the working directory that has one. No file means defaults.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	dir := o.configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
		root, err := config.FindProjectRoot(wd)
		switch {
		case err == nil:
			dir = root
		case !errors.Is(err, config.ErrNoConfig):
			return nil, err
		}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}

// bundleReader serves project bundles first and the built-in components'
// bundles after them. Project names go through the manifest when one is
// configured.
func bundleReader(ctx context.Context, cfg *config.Config) (loader.Reader, error) {
	var project loader.Reader
	switch b := cfg.Bundles; {
	case b.S3.Bucket != "":
		project = loader.NewS3Reader(newS3Client(b.S3), b.S3.Bucket, b.S3.Prefix)
	case cfg.BundleDir() != "":
		project = loader.NewDirReader(cfg.BundleDir())
	default:
		return registry.Reader(), nil
	}

	if name := cfg.Bundles.Manifest; name != "" {
		m, err := loader.LoadManifest(ctx, project, name)
		if err != nil {
			return nil, fmt.Errorf("bundle manifest: %w", err)
		}
		project = loader.Fingerprinted(project, m)
	}
	return loader.Chain{project, registry.Reader()}, nil
}

func newS3Client(c config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       c.Region,
		UsePathStyle: c.PathStyle,
		Credentials:  envCredentials(),
	}
	if opts.Region == "" {
		opts.Region = os.Getenv("AWS_REGION")
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
	}
	return s3.New(opts)
}

// envCredentials reads static credentials from the standard AWS variables.
// Without them requests are sent unsigned, which public buckets accept.
func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "EnvironmentVariables",
		}, nil
	}))
}

// newDriver builds a driver over the built-in components.
func newDriver(ctx context.Context, cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) (*hydrate.Driver, error) {
	reg := component.NewRegistry()
	if err := registry.Register(reg); err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}
	reader, err := bundleReader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return hydrate.New(reg,
		hydrate.WithReader(reader),
		hydrate.WithMetrics(collector),
		hydrate.WithLogger(logger),
		hydrate.WithTimeout(cfg.Hydrate.Timeout),
	), nil
}
