package gitlab3

import (
	"context"
	"fmt"
	"net/http"
)

// Hook is a project web hook or a system hook.
type Hook struct {
	*Entity
}

func newHook(e *Entity) *Hook {
	return &Hook{Entity: e}
}

// URL returns the hook target URL
func (h *Hook) URL() string { return h.GetString("url") }

// SetURL changes the target URL locally; Save sends it.
func (h *Hook) SetURL(url string) error { return h.Set("url", url) }

func (p *Project) hooks() *collection[*Hook] {
	return nested(p.Entity, ResProjectHook, newHook)
}

// Hooks lists the project hooks.
func (p *Project) Hooks(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Hook, error) {
	return p.hooks().list(ctx, opts, nil, reqOpts...)
}

// Hook fetches a project hook by id.
func (p *Project) Hook(ctx context.Context, id int, reqOpts ...RequestOption) (*Hook, error) {
	return p.hooks().get(ctx, id, nil, reqOpts...)
}

// AddHook adds a project hook posting to url.
func (p *Project) AddHook(ctx context.Context, url string, reqOpts ...RequestOption) (*Hook, error) {
	return p.hooks().add(ctx, Attributes{"url": url}, reqOpts...)
}

// FindHook returns the first project hook matching criteria, or nil.
func (p *Project) FindHook(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Hook, error) {
	return p.hooks().findOne(ctx, criteria, reqOpts...)
}

// FindHooks returns every project hook matching criteria.
func (p *Project) FindHooks(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Hook, error) {
	return p.hooks().findAll(ctx, criteria, reqOpts...)
}

// UpdateHook saves the local changes of h.
func (p *Project) UpdateHook(ctx context.Context, h *Hook, reqOpts ...RequestOption) error {
	return h.Save(ctx, reqOpts...)
}

// DeleteHook deletes h.
func (p *Project) DeleteHook(ctx context.Context, h *Hook, reqOpts ...RequestOption) error {
	return h.Delete(ctx, reqOpts...)
}

// Test triggers a system hook with a sample event. Only system hooks can
// be tested.
func (h *Hook) Test(ctx context.Context, opts ...RequestOption) error {
	if h.def.Name != ResSystemHook {
		return localError(ErrNotSupported, "%s does not support test", h.def.Name)
	}
	if err := h.client.Do(ctx, http.MethodGet, h.path, nil, nil, nil, opts...); err != nil {
		return fmt.Errorf("test hook %d failed: %w", h.ID(), err)
	}
	return nil
}

func (c *Client) systemHooks() *collection[*Hook] {
	return topLevel(c, ResSystemHook, newHook)
}

// SystemHooks lists the system hooks (admin only).
func (c *Client) SystemHooks(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Hook, error) {
	return c.systemHooks().list(ctx, opts, nil, reqOpts...)
}

// AddSystemHook adds a system hook posting to url.
func (c *Client) AddSystemHook(ctx context.Context, url string, reqOpts ...RequestOption) (*Hook, error) {
	return c.systemHooks().add(ctx, Attributes{"url": url}, reqOpts...)
}

// DeleteSystemHook deletes h.
func (c *Client) DeleteSystemHook(ctx context.Context, h *Hook, reqOpts ...RequestOption) error {
	return h.Delete(ctx, reqOpts...)
}

// FindSystemHook returns the first system hook matching criteria, or nil.
func (c *Client) FindSystemHook(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Hook, error) {
	return c.systemHooks().findOne(ctx, criteria, reqOpts...)
}

// FindSystemHooks returns every system hook matching criteria.
func (c *Client) FindSystemHooks(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Hook, error) {
	return c.systemHooks().findAll(ctx, criteria, reqOpts...)
}
