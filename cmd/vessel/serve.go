package main

import (
	"net"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vessel/internal/config"
	"github.com/vango-dev/vessel/pkg/metrics"
	"github.com/vango-dev/vessel/pkg/middleware"
	"github.com/vango-dev/vessel/pkg/server"
)

func serveCmd(root *rootOptions) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hydration server",
		Long: `Start an HTTP server that hydrates documents on request.

Routes:
  GET  /healthz   liveness probe
  POST /hydrate   hydrate one document
  GET  /ws        hydrate documents over a WebSocket
  GET  /metrics   Prometheus metrics (server.metrics)

Examples:
  vessel serve
  vessel serve --port=9090
  VESSEL_BUNDLES_S3_BUCKET=assets vessel serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			srv, err := newServer(cfg, cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Listening on http://%s", displayAddress(cfg))
			if cfg.Path() != "" {
				info(out, "Config: %s", cfg.Path())
			}
			if b := cfg.Bundles.S3; b.Bucket != "" {
				info(out, "Bundles: s3://%s/%s", b.Bucket, b.Prefix)
			} else {
				info(out, "Bundles: %s", cfg.BundleDir())
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vessel.yaml)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vessel.yaml)")

	return cmd
}

// newServer wires config, logging, metrics and the driver into a server.
func newServer(cfg *config.Config, cmd *cobra.Command) (*server.Server, error) {
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	var (
		collector *metrics.Collector
		opts      = []server.Option{server.WithLogger(logger)}
	)
	if cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.New(metrics.WithRegistry(reg))
		opts = append(opts,
			server.WithGatherer(collector.Gatherer()),
			server.WithMiddleware(middleware.Prometheus(middleware.WithRegistry(reg))),
		)
	}
	if cfg.Server.Tracing {
		opts = append(opts, server.WithMiddleware(middleware.OpenTelemetry()))
	}

	driver, err := newDriver(cmd.Context(), cfg, logger, collector)
	if err != nil {
		return nil, err
	}
	return server.New(driver, &server.ServerConfig{
		Address:         cfg.Address(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Defaults:        cfg.HydrateOptions(),
	}, opts...), nil
}

// displayAddress replaces a wildcard host with localhost.
func displayAddress(cfg *config.Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
}
