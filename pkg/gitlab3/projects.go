package gitlab3

import (
	"context"
	"fmt"
	"net/http"
)

// Project is a GitLab project.
type Project struct {
	*Entity
}

func newProject(e *Entity) *Project {
	return &Project{Entity: e}
}

// Name returns the project name
func (p *Project) Name() string { return p.GetString("name") }

// Path returns the project path within its namespace
func (p *Project) Path() string { return p.GetString("path") }

// PathWithNamespace returns "namespace/path"
func (p *Project) PathWithNamespace() string { return p.GetString("path_with_namespace") }

// Description returns the project description
func (p *Project) Description() string { return p.GetString("description") }

// DefaultBranch returns the default branch name
func (p *Project) DefaultBranch() string { return p.GetString("default_branch") }

// Public reports whether the project is public
func (p *Project) Public() bool { return p.GetBool("public") }

// WebURL returns the project page URL
func (p *Project) WebURL() string { return p.GetString("web_url") }

// ListProjectsOptions filters the project listing.
type ListProjectsOptions struct {
	ListOptions
	Archived *bool  `url:"archived,omitempty"`
	OrderBy  string `url:"order_by,omitempty"`
	Sort     string `url:"sort,omitempty"`
	Search   string `url:"search,omitempty"`
}

func (c *Client) projects() *collection[*Project] {
	return topLevel(c, ResProject, newProject)
}

// Projects lists the projects accessible to the current user.
func (c *Client) Projects(ctx context.Context, opts *ListProjectsOptions, reqOpts ...RequestOption) ([]*Project, error) {
	if opts == nil {
		opts = &ListProjectsOptions{}
	}
	return c.projects().list(ctx, &opts.ListOptions, opts, reqOpts...)
}

// Project fetches a project by numeric id or by "namespace/path".
func (c *Client) Project(ctx context.Context, id any, reqOpts ...RequestOption) (*Project, error) {
	return c.projects().get(ctx, id, nil, reqOpts...)
}

// AddProject creates a project owned by the current user. attrs holds the
// optional parameters (description, public, issues_enabled, ...).
func (c *Client) AddProject(ctx context.Context, name string, attrs Attributes, reqOpts ...RequestOption) (*Project, error) {
	return c.projects().add(ctx, withAttr(attrs, "name", name), reqOpts...)
}

// AddProjectForUser creates a project owned by another user (admin only).
func (c *Client) AddProjectForUser(ctx context.Context, userID int, name string, attrs Attributes, reqOpts ...RequestOption) (*Project, error) {
	var created Attributes
	path := fmt.Sprintf("/projects/user/%d", userID)
	if err := c.Do(ctx, http.MethodPost, path, nil, withAttr(attrs, "name", name), &created, reqOpts...); err != nil {
		return nil, fmt.Errorf("add project for user %d failed: %w", userID, err)
	}
	return c.projects().entity(created), nil
}

// DeleteProject deletes p.
func (c *Client) DeleteProject(ctx context.Context, p *Project, reqOpts ...RequestOption) error {
	return p.Delete(ctx, reqOpts...)
}

// FindProject returns the first project matching criteria, or nil.
func (c *Client) FindProject(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Project, error) {
	return c.projects().findOne(ctx, criteria, reqOpts...)
}

// FindProjects returns every project matching criteria.
func (c *Client) FindProjects(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Project, error) {
	return c.projects().findAll(ctx, criteria, reqOpts...)
}

// SearchProjects asks GitLab for projects whose name matches query.
func (c *Client) SearchProjects(ctx context.Context, query string, opts *ListOptions, reqOpts ...RequestOption) ([]*Project, error) {
	col := c.projects()
	col.source = "/projects/search/" + pathKey(query)
	return col.list(ctx, opts, nil, reqOpts...)
}

// ForkFrom marks p as a fork of the project with the given id.
func (p *Project) ForkFrom(ctx context.Context, forkedFromID int, reqOpts ...RequestOption) error {
	path := fmt.Sprintf("%s/fork/%d", p.path, forkedFromID)
	if err := p.update(ctx, http.MethodPost, path, nil, reqOpts...); err != nil {
		return fmt.Errorf("fork from %d failed: %w", forkedFromID, err)
	}
	return nil
}

// DeleteFork removes the fork relation of p.
func (p *Project) DeleteFork(ctx context.Context, reqOpts ...RequestOption) error {
	return p.client.Do(ctx, http.MethodDelete, p.path+"/fork", nil, nil, nil, reqOpts...)
}

// Blob returns the raw content of filepath at a commit sha or ref name.
func (p *Project) Blob(ctx context.Context, shaOrRef, filepath string, reqOpts ...RequestOption) ([]byte, error) {
	path := p.path + "/repository/commits/" + pathKey(shaOrRef) + "/blob"
	return p.client.DoRaw(ctx, http.MethodGet, path, Attributes{"filepath": filepath}, reqOpts...)
}

// ProtectBranch protects the named branch.
func (p *Project) ProtectBranch(ctx context.Context, branch string, reqOpts ...RequestOption) error {
	return p.setBranchProtection(ctx, branch, true, reqOpts)
}

// UnprotectBranch removes the protection of the named branch.
func (p *Project) UnprotectBranch(ctx context.Context, branch string, reqOpts ...RequestOption) error {
	return p.setBranchProtection(ctx, branch, false, reqOpts)
}

func (p *Project) setBranchProtection(ctx context.Context, branch string, protect bool, reqOpts []RequestOption) error {
	action := "unprotect"
	if protect {
		action = "protect"
	}
	def := defs.mustGet(ResProjectBranch)
	path := p.subPath(def) + "/" + pathKey(branch) + "/" + action
	if err := p.client.Do(ctx, http.MethodPut, path, nil, nil, nil, reqOpts...); err != nil {
		return fmt.Errorf("%s branch %s failed: %w", action, branch, err)
	}
	return nil
}

// withAttr returns a copy of attrs with key set to val.
func withAttr(attrs Attributes, key string, val any) Attributes {
	out := make(Attributes, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out[key] = val
	return out
}
