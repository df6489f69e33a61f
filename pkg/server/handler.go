package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/vango-dev/vessel/pkg/hydrate"
)

// HydrateRequest is the JSON body of POST /hydrate and of a socket
// message. Unset option fields take the server defaults.
type HydrateRequest struct {
	ID                 string `json:"id,omitempty"`
	HTML               string `json:"html"`
	URL                string `json:"url,omitempty"`
	Lang               string `json:"lang,omitempty"`
	Dir                string `json:"dir,omitempty"`
	Mode               string `json:"mode,omitempty"`
	TimeoutMS          int64  `json:"timeoutMs,omitempty"`
	Canonical          *bool  `json:"canonical,omitempty"`
	PruneCSS           *bool  `json:"pruneCss,omitempty"`
	InlineLoader       *bool  `json:"inlineLoader,omitempty"`
	CollapseWhitespace *bool  `json:"collapseWhitespace,omitempty"`
}

// Options merges the request over defaults.
func (r *HydrateRequest) Options(defaults hydrate.Options) hydrate.Options {
	opts := defaults
	if r.URL != "" {
		opts.URL = r.URL
	}
	if r.Lang != "" {
		opts.Lang = r.Lang
	}
	if r.Dir != "" {
		opts.Dir = r.Dir
	}
	if r.Mode != "" {
		opts.Mode = r.Mode
	}
	if r.TimeoutMS > 0 {
		opts.Timeout = time.Duration(r.TimeoutMS) * time.Millisecond
	}
	setBool(&opts.Canonical, r.Canonical)
	setBool(&opts.PruneCSS, r.PruneCSS)
	setBool(&opts.InlineLoader, r.InlineLoader)
	setBool(&opts.CollapseWhitespace, r.CollapseWhitespace)
	return opts
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// errorResponse is the JSON body of a failed request.
type errorResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// handleHydrate accepts either a JSON HydrateRequest or a raw HTML body
// with options in the query string. The response is JSON unless the
// client asks for text/html.
func (s *Server) handleHydrate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(w, r)
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.driver.Hydrate(r.Context(), req.HTML, req.Options(s.config.Defaults))
	if err != nil {
		s.logger.Warn("hydrate request failed", "url", req.URL, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{ID: req.ID, Error: err.Error()})
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if res.Failed() {
			w.WriteHeader(http.StatusInternalServerError)
		}
		io.WriteString(w, res.HTML)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*HydrateRequest, error) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	defer body.Close()

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req HydrateRequest
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	req := &HydrateRequest{
		HTML: string(data),
		URL:  q.Get("url"),
		Lang: q.Get("lang"),
		Dir:  q.Get("dir"),
		Mode: q.Get("mode"),
	}
	for key, dst := range map[string]**bool{
		"canonical":          &req.Canonical,
		"pruneCss":           &req.PruneCSS,
		"inlineLoader":       &req.InlineLoader,
		"collapseWhitespace": &req.CollapseWhitespace,
	} {
		if q.Has(key) {
			v := q.Get(key) != "false" && q.Get(key) != "0"
			*dst = &v
		}
	}
	return req, nil
}

func wantsHTML(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "html"
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
