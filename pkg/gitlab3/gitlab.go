package gitlab3

import (
	"context"
)

// untyped returns the collection of a top-level resource given by its
// plural name ("projects", "users", ...), with entities left untyped.
func (c *Client) untyped(plural string) (*collection[*Entity], error) {
	def := c.registry.TopLevel(plural)
	if def == nil {
		return nil, localError(ErrNotSupported, "unknown resource %q", plural)
	}
	if def.Name == ResIssue {
		// Rooted under their project, as returned by Client.Issues
		issues := c.userIssues()
		return newCollection(c, def, def.Path, func(e *Entity) *Entity { return issues.wrap(e).Entity }), nil
	}
	return newCollection(c, def, def.Path, func(e *Entity) *Entity { return e }), nil
}

// List fetches the listing of a top-level resource by plural name.
func (c *Client) List(ctx context.Context, plural string, opts *ListOptions, reqOpts ...RequestOption) ([]*Entity, error) {
	col, err := c.untyped(plural)
	if err != nil {
		return nil, err
	}
	return col.list(ctx, opts, nil, reqOpts...)
}

// FindOne returns the first entity of a top-level resource matching
// criteria, or nil. The listing is fetched page by page until a match.
func (c *Client) FindOne(ctx context.Context, plural string, criteria Attributes, reqOpts ...RequestOption) (*Entity, error) {
	col, err := c.untyped(plural)
	if err != nil {
		return nil, err
	}
	return col.findOne(ctx, criteria, reqOpts...)
}

// FindAll returns every entity of a top-level resource matching criteria,
// in server order.
func (c *Client) FindAll(ctx context.Context, plural string, criteria Attributes, reqOpts ...RequestOption) ([]*Entity, error) {
	col, err := c.untyped(plural)
	if err != nil {
		return nil, err
	}
	return col.findAll(ctx, criteria, reqOpts...)
}
