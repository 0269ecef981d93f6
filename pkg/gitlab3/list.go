package gitlab3

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
)

// MaxPerPage is the largest per_page value GitLab accepts when listing.
const MaxPerPage = 100

// ListOptions controls pagination of list requests.
//
// Listing starts at Page (default 1) and requests pages sequentially until
// GitLab returns an empty page, repeats the previous page, or Limit entities
// have been collected. PerPage defaults to Limit when Limit is below the
// client page size (MaxPerPage unless set with WithPerPage), otherwise to
// the client page size.
type ListOptions struct {
	Page    int `url:"page,omitempty"`
	PerPage int `url:"per_page,omitempty"`

	// Limit caps the number of entities returned (0 for all)
	Limit int `url:"-"`
}

// listOpts returns o, or empty options if o is nil.
func listOpts(o *ListOptions) *ListOptions {
	if o == nil {
		return &ListOptions{}
	}
	return o
}

// pager fetches a listing one page at a time.
type pager struct {
	client  *Client
	path    string
	params  any
	opts    []RequestOption
	page    int
	perPage int
	limit   int
	fetched int
	last    []byte
	done    bool
}

// newPager creates a pager for the listing at path. params carries
// additional filters; its page and per_page values are overridden.
func newPager(client *Client, path string, lo *ListOptions, params any, opts []RequestOption) *pager {
	lo = listOpts(lo)

	page := lo.Page
	if page < 1 {
		page = 1
	}

	perPage := lo.PerPage
	if perPage < 1 {
		perPage = client.perPage
		if lo.Limit > 0 && lo.Limit < perPage {
			perPage = lo.Limit
		}
	}

	return &pager{
		client:  client,
		path:    path,
		params:  params,
		opts:    opts,
		page:    page,
		perPage: perPage,
		limit:   max(lo.Limit, 0),
	}
}

// next returns the next page of raw entities. A nil slice with a nil error
// means the listing is exhausted.
func (p *pager) next(ctx context.Context) ([]Attributes, error) {
	if p.done {
		return nil, nil
	}

	values, err := encodeParams(p.params)
	if err != nil {
		return nil, err
	}
	values.Set("page", strconv.Itoa(p.page))
	values.Set("per_page", strconv.Itoa(p.perPage))

	data, err := p.client.send(ctx, http.MethodGet, p.path, values, nil, p.opts)
	if err != nil {
		return nil, err
	}

	// GitLab does not always answer past the end with an empty page; it
	// may repeat the last one
	if p.last != nil && bytes.Equal(bytes.TrimSpace(data), p.last) {
		p.done = true
		return nil, nil
	}

	var items []Attributes
	if err := p.client.decode(http.MethodGet, p.path, data, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		p.done = true
		return nil, nil
	}

	p.last = bytes.TrimSpace(data)
	p.page++

	if p.limit > 0 {
		if remaining := p.limit - p.fetched; len(items) >= remaining {
			items = items[:remaining]
			p.done = true
		}
	}
	p.fetched += len(items)

	return items, nil
}

// collection addresses one listable resource under a parent path and wraps
// the entities it returns into their typed form.
type collection[T Matcher] struct {
	client *Client
	def    *Definition
	path   string
	wrap   func(*Entity) T

	// source is fetched instead of path when set, for listings such as
	// searches whose entities live under path
	source string
}

// newCollection creates a collection for def rooted at path.
func newCollection[T Matcher](client *Client, def *Definition, path string, wrap func(*Entity) T) *collection[T] {
	return &collection[T]{
		client: client,
		def:    def,
		path:   path,
		wrap:   wrap,
	}
}

// listPath returns the path the listing is fetched from.
func (c *collection[T]) listPath() string {
	if c.source != "" {
		return c.source
	}
	return c.path
}

// entity wraps raw attributes listed by this collection.
func (c *collection[T]) entity(attrs Attributes) T {
	return c.wrap(newEntity(c.client, c.def, c.path, attrs))
}

// list fetches the listing according to lo. params carries extra filters.
// On error the pages gathered so far are discarded.
func (c *collection[T]) list(ctx context.Context, lo *ListOptions, params any, opts ...RequestOption) ([]T, error) {
	if err := c.def.require(ActionList); err != nil {
		return nil, err
	}

	p := newPager(c.client, c.listPath(), lo, params, opts)

	var result []T
	for {
		items, err := p.next(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			break
		}
		for _, attrs := range items {
			result = append(result, c.entity(attrs))
		}
	}

	c.client.logger.Debug().
		Str("resource", c.def.Name).
		Str("path", c.listPath()).
		Int("count", len(result)).
		Msg("GitLab: Listed resources")

	return result, nil
}

// get fetches one entity by key.
func (c *collection[T]) get(ctx context.Context, key any, params any, opts ...RequestOption) (T, error) {
	var zero T
	if err := c.def.require(ActionGet); err != nil {
		return zero, err
	}

	var attrs Attributes
	if err := c.client.Do(ctx, http.MethodGet, c.path+"/"+pathKey(key), params, nil, &attrs, opts...); err != nil {
		return zero, err
	}
	return c.entity(attrs), nil
}

// add creates an entity. All required parameters of the definition must be
// present in attrs.
func (c *collection[T]) add(ctx context.Context, attrs Attributes, opts ...RequestOption) (T, error) {
	var zero T
	if err := c.def.require(ActionAdd); err != nil {
		return zero, err
	}
	for _, param := range c.def.RequiredParams {
		if _, ok := attrs[param]; !ok {
			return zero, localError(ErrMissingAttribute, "add %s: %q is required", c.def.Name, param)
		}
	}

	var created Attributes
	if err := c.client.Do(ctx, http.MethodPost, c.path, nil, attrs, &created, opts...); err != nil {
		return zero, err
	}
	return c.entity(created), nil
}

// findAll fetches the full listing and returns every match.
func (c *collection[T]) findAll(ctx context.Context, criteria Attributes, opts ...RequestOption) ([]T, error) {
	if len(criteria) == 0 {
		return nil, ErrNoCriteria
	}

	items, err := c.list(ctx, nil, nil, opts...)
	if err != nil {
		return nil, err
	}
	return FindAll(items, criteria), nil
}

// findOne fetches the listing page by page and stops at the first match.
// Returns the zero value when nothing matches.
func (c *collection[T]) findOne(ctx context.Context, criteria Attributes, opts ...RequestOption) (T, error) {
	var zero T
	if len(criteria) == 0 {
		return zero, ErrNoCriteria
	}
	if err := c.def.require(ActionList); err != nil {
		return zero, err
	}

	p := newPager(c.client, c.listPath(), &ListOptions{PerPage: MaxPerPage}, nil, opts)
	for {
		items, err := p.next(ctx)
		if err != nil {
			return zero, err
		}
		if items == nil {
			return zero, nil
		}

		page := make([]T, 0, len(items))
		for _, attrs := range items {
			page = append(page, c.entity(attrs))
		}
		if match, ok := FindOne(page, criteria); ok {
			return match, nil
		}
	}
}

// topLevel returns the collection of a top-level definition.
func topLevel[T Matcher](c *Client, name string, wrap func(*Entity) T) *collection[T] {
	def := defs.mustGet(name)
	return newCollection(c, def, def.Path, wrap)
}

// nested returns the collection of a definition nested under e.
func nested[T Matcher](e *Entity, name string, wrap func(*Entity) T) *collection[T] {
	def := defs.mustGet(name)
	return newCollection(e.client, def, e.subPath(def), wrap)
}
