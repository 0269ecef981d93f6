package gitlab3

import (
	"context"
	"net/http"
)

// ctxKey is the type for context keys used in this package.
type ctxKey int

// sudoKey is the context key for the impersonated user.
const sudoKey ctxKey = 0

// WithSudo returns a context under which every request impersonates user
// (a username or a numeric id). The scope ends when the returned context is
// no longer used: the parent context never carries the sudo parameter, so
// requests made after the scope, even after a failed call, are unaffected.
func WithSudo(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, sudoKey, user)
}

// SudoFromContext returns the user impersonated by ctx, if any.
func SudoFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(sudoKey).(string)
	return user, ok && user != ""
}

// Sudo runs fn with a context impersonating user.
func (c *Client) Sudo(ctx context.Context, user string, fn func(ctx context.Context) error) error {
	return fn(WithSudo(ctx, user))
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	sudo   string
	header http.Header
}

// Sudo impersonates user for one request, overriding any sudo user carried
// by the context.
func Sudo(user string) RequestOption {
	return func(c *requestConfig) {
		c.sudo = user
	}
}

// NoSudo suppresses the sudo user carried by the context for one request.
func NoSudo() RequestOption {
	return func(c *requestConfig) {
		c.sudo = ""
	}
}

// WithHeader adds a header to one request.
func WithHeader(key, value string) RequestOption {
	return func(c *requestConfig) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Add(key, value)
	}
}

// newRequestConfig resolves the options of one request. The ambient sudo
// user comes first so per-call options override it.
func newRequestConfig(ctx context.Context, opts []RequestOption) *requestConfig {
	cfg := &requestConfig{}
	if user, ok := SudoFromContext(ctx); ok {
		cfg.sudo = user
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
