// Package middleware provides HTTP middleware for the vessel server.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics
//
// Both are plain func(http.Handler) http.Handler values and mount on a
// chi router like any other middleware:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry())
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//
// # OpenTelemetry
//
// A server span is started for every request and placed in the request
// context. Spans started further down, such as the hydration driver's,
// become its children.
//
// # Prometheus
//
// Requests are counted by chi route pattern, method and status code. The
// route label is the pattern ("/hydrate"), never the raw path.
package middleware
