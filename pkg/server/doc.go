// Package server exposes the hydration driver over HTTP.
//
// Routes:
//
//	GET  /healthz   liveness probe
//	POST /hydrate   hydrate one document
//	GET  /ws        hydrate documents over a WebSocket
//	GET  /metrics   Prometheus metrics, when a gatherer is configured
//
// POST /hydrate takes either a JSON HydrateRequest (Content-Type
// application/json) or the raw document with options in the query string:
//
//	curl -X POST --data-binary @page.html \
//	    'http://localhost:8080/hydrate?url=https://example.com/&format=html'
//
// The response is the JSON hydrate.Result, or the document itself when
// format=html is given or the client accepts text/html.
//
// A socket carries one JSON HydrateRequest per text message. Replies come
// in request order and echo the request id.
package server
