package server

import (
	"net/http"
	"time"

	"github.com/vango-dev/vessel/pkg/hydrate"
)

// ServerConfig holds configuration for the hydration server.
type ServerConfig struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// HTTP timeouts.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxBodyBytes limits the size of a hydrate request or message.
	// Default: 4MB.
	MaxBodyBytes int64

	// WebSocket buffer sizes.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header of socket upgrades.
	// Default: same origin only.
	CheckOrigin func(r *http.Request) bool

	// SocketIdleTimeout closes a socket with no request for this long.
	// Default: 2 minutes.
	SocketIdleTimeout time.Duration

	// Defaults are merged into every request's options.
	Defaults hydrate.Options
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxBodyBytes:      4 << 20,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       sameOrigin,
		SocketIdleTimeout: 2 * time.Minute,
	}
}

// withDefaults fills every unset field from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = defaults.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = defaults.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.SocketIdleTimeout == 0 {
		out.SocketIdleTimeout = defaults.SocketIdleTimeout
	}
	return &out
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := parseOrigin(origin)
	if err != nil {
		return false
	}
	return u == r.Host
}
