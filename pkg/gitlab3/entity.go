package gitlab3

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"time"
)

// Attributes maps GitLab field names to their JSON-decoded values.
// Numbers decode as float64; the typed getters on Entity convert them.
type Attributes map[string]any

// Entity is a GitLab resource mirrored locally.
// It is populated from a JSON response and holds a reference to the client
// for further calls. Entities are not safe for concurrent mutation.
type Entity struct {
	client  *Client
	def     *Definition
	path    string
	attrs   Attributes
	changed map[string]struct{}
	deleted bool
}

// newEntity creates an entity for attrs listed under collectionPath.
// Its own path is collectionPath plus its key, or collectionPath itself for
// resources without a key attribute.
func newEntity(client *Client, def *Definition, collectionPath string, attrs Attributes) *Entity {
	if attrs == nil {
		attrs = make(Attributes)
	}
	e := &Entity{
		client:  client,
		def:     def,
		path:    collectionPath,
		attrs:   attrs,
		changed: make(map[string]struct{}),
	}
	if key := e.PathKey(); key != "" {
		e.path = collectionPath + "/" + key
	}
	return e
}

// Definition returns the resource definition of this entity.
func (e *Entity) Definition() *Definition {
	return e.def
}

// ResourcePath returns the entity path relative to the API base URL
// (e.g., "/projects/5/issues/3").
func (e *Entity) ResourcePath() string {
	return e.path
}

// Client returns the client the entity was fetched with.
func (e *Entity) Client() *Client {
	return e.client
}

// ID returns the numeric id attribute, or 0 if absent or not numeric.
func (e *Entity) ID() int {
	return e.GetInt("id")
}

// PathKey returns the escaped value of the key attribute, as used in URLs.
func (e *Entity) PathKey() string {
	if e.def == nil || e.def.KeyName == "" {
		return ""
	}
	val, ok := e.attrs[e.def.KeyName]
	if !ok || val == nil {
		return ""
	}
	return pathKey(val)
}

// Attributes returns a copy of all attributes.
func (e *Entity) Attributes() Attributes {
	return maps.Clone(e.attrs)
}

// Keys returns the attribute names, sorted.
func (e *Entity) Keys() []string {
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns an attribute value by key, with a boolean indicating presence.
func (e *Entity) Lookup(key string) (any, bool) {
	val, ok := e.attrs[key]
	return val, ok
}

// Attr returns an attribute value by key.
// Returns ErrUnknownAttribute if the entity has no such attribute.
func (e *Entity) Attr(key string) (any, error) {
	val, ok := e.attrs[key]
	if !ok {
		return nil, localError(ErrUnknownAttribute, "%s has no attribute %q", e.def.Name, key)
	}
	return val, nil
}

// GetString returns an attribute value as a string, or "" if not a string.
func (e *Entity) GetString(key string) string {
	str, _ := e.attrs[key].(string)
	return str
}

// GetInt returns a numeric attribute value as an int, or 0.
func (e *Entity) GetInt(key string) int {
	switch v := e.attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// GetBool returns a boolean attribute value, or false.
func (e *Entity) GetBool(key string) bool {
	b, _ := e.attrs[key].(bool)
	return b
}

// GetTime parses an RFC 3339 timestamp attribute. Returns the zero time if the
// attribute is absent or unparseable.
func (e *Entity) GetTime(key string) time.Time {
	switch v := e.attrs[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

// GetStrings returns a list attribute as a slice of strings.
func (e *Entity) GetStrings(key string) []string {
	switch v := e.attrs[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// GetMap returns a nested object attribute, such as the author of an issue.
func (e *Entity) GetMap(key string) Attributes {
	switch v := e.attrs[key].(type) {
	case map[string]any:
		return Attributes(v)
	case Attributes:
		return v
	default:
		return nil
	}
}

// Set changes an attribute locally. The change is sent to GitLab by Save.
func (e *Entity) Set(key string, value any) error {
	if e.deleted {
		return localError(ErrDeleted, "cannot set %q on deleted %s", key, e.def.Name)
	}
	e.attrs[key] = value
	e.changed[key] = struct{}{}
	return nil
}

// Changed returns the names of attributes set since the last save, sorted.
func (e *Entity) Changed() []string {
	keys := make([]string, 0, len(e.changed))
	for k := range e.changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Deleted reports whether Delete has succeeded on this entity.
func (e *Entity) Deleted() bool {
	return e.deleted
}

// Save sends locally changed attributes to GitLab with PUT and merges the
// returned representation. Save without changes does nothing.
func (e *Entity) Save(ctx context.Context, opts ...RequestOption) error {
	if e.deleted {
		return localError(ErrDeleted, "cannot save deleted %s", e.def.Name)
	}
	if err := e.def.require(ActionEdit); err != nil {
		return err
	}
	if len(e.changed) == 0 {
		return nil
	}

	body := make(Attributes, len(e.changed))
	for k := range e.changed {
		body[k] = e.attrs[k]
	}

	if err := e.update(ctx, http.MethodPut, e.path, body, opts...); err != nil {
		return fmt.Errorf("save %s failed: %w", e.def.Name, err)
	}

	e.client.logger.Debug().
		Str("resource", e.def.Name).
		Str("path", e.path).
		Strs("fields", e.Changed()).
		Msg("GitLab: Saved resource")

	e.changed = make(map[string]struct{})
	return nil
}

// Delete deletes the entity on GitLab. Afterwards the entity refuses
// further changes.
func (e *Entity) Delete(ctx context.Context, opts ...RequestOption) error {
	if e.deleted {
		return localError(ErrDeleted, "%s already deleted", e.def.Name)
	}
	if err := e.def.require(ActionDelete); err != nil {
		return err
	}

	if err := e.client.Do(ctx, http.MethodDelete, e.path, nil, nil, nil, opts...); err != nil {
		return fmt.Errorf("delete %s failed: %w", e.def.Name, err)
	}

	e.client.logger.Debug().
		Str("resource", e.def.Name).
		Str("path", e.path).
		Msg("GitLab: Deleted resource")

	e.deleted = true
	return nil
}

// Refresh re-fetches the entity and replaces its attributes, discarding
// unsaved changes.
func (e *Entity) Refresh(ctx context.Context, opts ...RequestOption) error {
	if e.deleted {
		return localError(ErrDeleted, "cannot refresh deleted %s", e.def.Name)
	}

	var attrs Attributes
	if err := e.client.Do(ctx, http.MethodGet, e.path, nil, nil, &attrs, opts...); err != nil {
		return fmt.Errorf("refresh %s failed: %w", e.def.Name, err)
	}

	e.attrs = attrs
	if e.attrs == nil {
		e.attrs = make(Attributes)
	}
	e.changed = make(map[string]struct{})

	e.client.logger.Debug().
		Str("resource", e.def.Name).
		Str("path", e.path).
		Msg("GitLab: Refreshed resource")
	return nil
}

// update issues a request whose response is a representation of this
// entity and merges it into the attributes.
func (e *Entity) update(ctx context.Context, method, path string, body any, opts ...RequestOption) error {
	var attrs Attributes
	if err := e.client.Do(ctx, method, path, nil, body, &attrs, opts...); err != nil {
		return err
	}
	maps.Copy(e.attrs, attrs)
	return nil
}

// subPath returns the path of a resource nested under this entity.
func (e *Entity) subPath(def *Definition) string {
	return e.path + def.Path
}

// MarshalJSON encodes the entity attributes.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.attrs)
}

// GoString returns a debug representation.
func (e *Entity) GoString() string {
	return fmt.Sprintf("%s(%s)%v", e.def.Name, e.path, map[string]any(e.attrs))
}
