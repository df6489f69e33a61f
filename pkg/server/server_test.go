package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/hydrate"
	"github.com/vango-dev/vessel/pkg/metrics"
	"github.com/vango-dev/vessel/pkg/middleware"
	"github.com/vango-dev/vessel/pkg/vdom"
)

type badge struct {
	Text string
}

func (b *badge) Render() *vdom.Node {
	return vdom.Root(vdom.Span(vdom.Class("badge"), b.Text))
}

func newTestServer(t *testing.T, config *ServerConfig, opts ...Option) *Server {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, reg.Define(&component.Descriptor{
		Tag: "x-badge",
		Members: []component.Member{
			component.Prop[badge, string]("text", func(b *badge) *string { return &b.Text }),
		},
		New: func() any { return &badge{} },
	}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	driver := hydrate.New(reg, hydrate.WithLogger(logger))
	return New(driver, config, append([]Option{WithLogger(logger)}, opts...)...)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHydrateJSON(t *testing.T) {
	s := newTestServer(t, &ServerConfig{Defaults: hydrate.Options{Canonical: true}})
	body := `{"id":"r1","html":"<x-badge text=\"new\"></x-badge>","url":"https://example.com/a","lang":"he"}`
	req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res hydrate.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Hosts)
	assert.Equal(t, "https://example.com/a", res.URL)
	assert.Contains(t, res.HTML, `<span class="badge" ssrc="1.0">`)
	assert.Contains(t, res.HTML, `lang="he" dir="rtl"`)
	assert.Contains(t, res.HTML, `<link rel="canonical" href="https://example.com/a"/>`)
}

func TestHydrateRawHTML(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/hydrate?format=html&canonical=1&url=https://example.com/b",
		strings.NewReader(`<x-badge text="raw"></x-badge>`))
	req.Header.Set("Content-Type", "text/html")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<!--s.1.0-->raw<!--/-->")
	assert.Contains(t, rec.Body.String(), `href="https://example.com/b"`)
}

func TestHydrateRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		ct   string
		want int
	}{
		{"malformed json", `{"html":`, "application/json", http.StatusBadRequest},
		{"unknown field", `{"html":"","bogus":1}`, "application/json", http.StatusBadRequest},
		{"too large", strings.Repeat("x", 64), "text/html", http.StatusRequestEntityTooLarge},
	}
	s := newTestServer(t, &ServerConfig{MaxBodyBytes: 32})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHydrateRequestOptions(t *testing.T) {
	yes, no := true, false
	defaults := hydrate.Options{URL: "https://default/", PruneCSS: true, Lang: "en"}
	req := HydrateRequest{URL: "https://x/", TimeoutMS: 1500, PruneCSS: &no, Canonical: &yes}

	opts := req.Options(defaults)
	assert.Equal(t, "https://x/", opts.URL)
	assert.Equal(t, "en", opts.Lang)
	assert.False(t, opts.PruneCSS)
	assert.True(t, opts.Canonical)
	assert.Equal(t, int64(1500), opts.Timeout.Milliseconds())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.New(metrics.WithRegistry(reg))
	s := newTestServer(t, nil,
		WithGatherer(collector.Gatherer()),
		WithMiddleware(middleware.Prometheus(middleware.WithRegistry(reg))),
	)

	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vessel_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSocket(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(HydrateRequest{ID: "a", HTML: `<x-badge text="one"></x-badge>`}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(HydrateRequest{ID: "b", HTML: `<p>static</p>`}))

	var first, second, third socketResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	require.NoError(t, conn.ReadJSON(&third))

	assert.Equal(t, "a", first.ID)
	require.NotNil(t, first.Result)
	assert.Contains(t, first.Result.HTML, "<!--s.1.0-->one<!--/-->")

	assert.Contains(t, second.Error, "invalid request")

	assert.Equal(t, "b", third.ID)
	require.NotNil(t, third.Result)
	assert.Equal(t, `<p>static</p>`, third.Result.HTML)
	assert.Zero(t, third.Result.Hosts)
}

func TestSocketRejectsCrossOrigin(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
