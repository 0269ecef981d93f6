package gitlab3

import (
	"context"
	"net/http"
	"time"
)

// User is a GitLab user account.
type User struct {
	*Entity
}

func newUser(e *Entity) *User {
	return &User{Entity: e}
}

// Username returns the login name
func (u *User) Username() string { return u.GetString("username") }

// Name returns the display name
func (u *User) Name() string { return u.GetString("name") }

// Email returns the primary email address
func (u *User) Email() string { return u.GetString("email") }

// State returns "active" or "blocked"
func (u *User) State() string { return u.GetString("state") }

// IsAdmin reports whether the user is an administrator
func (u *User) IsAdmin() bool { return u.GetBool("is_admin") }

// CreatedAt returns the account creation time
func (u *User) CreatedAt() time.Time { return u.GetTime("created_at") }

// AddSSHKey adds an SSH key to the user's account (admin only).
func (u *User) AddSSHKey(ctx context.Context, title, key string, reqOpts ...RequestOption) (*SSHKey, error) {
	return nested(u.Entity, ResUserKey, newSSHKey).add(ctx, keyAttrs(title, key), reqOpts...)
}

func (c *Client) users() *collection[*User] {
	return topLevel(c, ResUser, newUser)
}

// Users lists the users.
func (c *Client) Users(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*User, error) {
	return c.users().list(ctx, opts, nil, reqOpts...)
}

// User fetches a user by id.
func (c *Client) User(ctx context.Context, id int, reqOpts ...RequestOption) (*User, error) {
	return c.users().get(ctx, id, nil, reqOpts...)
}

// AddUser creates a user (admin only). attrs holds the optional parameters
// (projects_limit, admin, bio, ...).
func (c *Client) AddUser(ctx context.Context, email, password, username, name string, attrs Attributes, reqOpts ...RequestOption) (*User, error) {
	attrs = withAttr(attrs, "email", email)
	attrs["password"] = password
	attrs["username"] = username
	attrs["name"] = name
	return c.users().add(ctx, attrs, reqOpts...)
}

// UpdateUser saves the local changes of u.
func (c *Client) UpdateUser(ctx context.Context, u *User, reqOpts ...RequestOption) error {
	return u.Save(ctx, reqOpts...)
}

// DeleteUser deletes u.
func (c *Client) DeleteUser(ctx context.Context, u *User, reqOpts ...RequestOption) error {
	return u.Delete(ctx, reqOpts...)
}

// FindUser returns the first user matching criteria, or nil.
func (c *Client) FindUser(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*User, error) {
	return c.users().findOne(ctx, criteria, reqOpts...)
}

// FindUsers returns every user matching criteria.
func (c *Client) FindUsers(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*User, error) {
	return c.users().findAll(ctx, criteria, reqOpts...)
}

// CurrentUser is the authenticated user, with access to its SSH keys.
type CurrentUser struct {
	*Entity
}

func newCurrentUser(e *Entity) *CurrentUser {
	return &CurrentUser{Entity: e}
}

// Username returns the login name
func (u *CurrentUser) Username() string { return u.GetString("username") }

// Name returns the display name
func (u *CurrentUser) Name() string { return u.GetString("name") }

// Email returns the primary email address
func (u *CurrentUser) Email() string { return u.GetString("email") }

// PrivateToken returns the API token of the user
func (u *CurrentUser) PrivateToken() string { return u.GetString("private_token") }

// CurrentUser fetches the authenticated user.
func (c *Client) CurrentUser(ctx context.Context, reqOpts ...RequestOption) (*CurrentUser, error) {
	var attrs Attributes
	def := defs.mustGet(ResCurrentUser)
	if err := c.Do(ctx, http.MethodGet, def.Path, nil, nil, &attrs, reqOpts...); err != nil {
		return nil, err
	}
	return newCurrentUser(newEntity(c, def, def.Path, attrs)), nil
}

func (u *CurrentUser) keys() *collection[*SSHKey] {
	return nested(u.Entity, ResCurrentUserKey, newSSHKey)
}

// SSHKeys lists the SSH keys of the current user.
func (u *CurrentUser) SSHKeys(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*SSHKey, error) {
	return u.keys().list(ctx, opts, nil, reqOpts...)
}

// SSHKey fetches an SSH key of the current user by id.
func (u *CurrentUser) SSHKey(ctx context.Context, id int, reqOpts ...RequestOption) (*SSHKey, error) {
	return u.keys().get(ctx, id, nil, reqOpts...)
}

// AddSSHKey adds an SSH key to the current user.
func (u *CurrentUser) AddSSHKey(ctx context.Context, title, key string, reqOpts ...RequestOption) (*SSHKey, error) {
	return u.keys().add(ctx, keyAttrs(title, key), reqOpts...)
}

// FindSSHKey returns the first SSH key of the current user matching
// criteria, or nil.
func (u *CurrentUser) FindSSHKey(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*SSHKey, error) {
	return u.keys().findOne(ctx, criteria, reqOpts...)
}

// FindSSHKeys returns every SSH key of the current user matching criteria.
func (u *CurrentUser) FindSSHKeys(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*SSHKey, error) {
	return u.keys().findAll(ctx, criteria, reqOpts...)
}

// DeleteSSHKey removes k from the current user.
func (u *CurrentUser) DeleteSSHKey(ctx context.Context, k *SSHKey, reqOpts ...RequestOption) error {
	return k.Delete(ctx, reqOpts...)
}

// SSHKey is a public SSH key of a user, or a project deploy key.
type SSHKey struct {
	*Entity
}

func newSSHKey(e *Entity) *SSHKey {
	return &SSHKey{Entity: e}
}

// Title returns the key title
func (k *SSHKey) Title() string { return k.GetString("title") }

// Key returns the public key
func (k *SSHKey) Key() string { return k.GetString("key") }

func keyAttrs(title, key string) Attributes {
	return Attributes{"title": title, "key": key}
}

func (p *Project) deployKeys() *collection[*SSHKey] {
	return nested(p.Entity, ResProjectDeployKey, newSSHKey)
}

// DeployKeys lists the project deploy keys.
func (p *Project) DeployKeys(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*SSHKey, error) {
	return p.deployKeys().list(ctx, opts, nil, reqOpts...)
}

// DeployKey fetches a deploy key by id.
func (p *Project) DeployKey(ctx context.Context, id int, reqOpts ...RequestOption) (*SSHKey, error) {
	return p.deployKeys().get(ctx, id, nil, reqOpts...)
}

// AddDeployKey adds a deploy key to the project.
func (p *Project) AddDeployKey(ctx context.Context, title, key string, reqOpts ...RequestOption) (*SSHKey, error) {
	return p.deployKeys().add(ctx, keyAttrs(title, key), reqOpts...)
}

// DeleteDeployKey removes k from the project.
func (p *Project) DeleteDeployKey(ctx context.Context, k *SSHKey, reqOpts ...RequestOption) error {
	return k.Delete(ctx, reqOpts...)
}

// FindDeployKey returns the first deploy key matching criteria, or nil.
func (p *Project) FindDeployKey(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*SSHKey, error) {
	return p.deployKeys().findOne(ctx, criteria, reqOpts...)
}

// FindDeployKeys returns every deploy key matching criteria.
func (p *Project) FindDeployKeys(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*SSHKey, error) {
	return p.deployKeys().findAll(ctx, criteria, reqOpts...)
}
