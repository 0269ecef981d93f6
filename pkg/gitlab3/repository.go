package gitlab3

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Branch is a repository branch, addressed by name.
type Branch struct {
	*Entity
}

func newBranch(e *Entity) *Branch {
	return &Branch{Entity: e}
}

// Name returns the branch name
func (b *Branch) Name() string { return b.GetString("name") }

// Protected reports whether the branch is protected
func (b *Branch) Protected() bool { return b.GetBool("protected") }

// Commit returns the attributes of the head commit
func (b *Branch) Commit() Attributes { return b.GetMap("commit") }

// Protect protects the branch and records it locally.
func (b *Branch) Protect(ctx context.Context, opts ...RequestOption) error {
	return b.setProtected(ctx, true, opts)
}

// Unprotect removes the protection and records it locally.
func (b *Branch) Unprotect(ctx context.Context, opts ...RequestOption) error {
	return b.setProtected(ctx, false, opts)
}

func (b *Branch) setProtected(ctx context.Context, protect bool, opts []RequestOption) error {
	action := "unprotect"
	if protect {
		action = "protect"
	}
	if err := b.update(ctx, http.MethodPut, b.path+"/"+action, nil, opts...); err != nil {
		return fmt.Errorf("%s branch %s failed: %w", action, b.Name(), err)
	}
	b.attrs["protected"] = protect
	return nil
}

func (p *Project) branches() *collection[*Branch] {
	return nested(p.Entity, ResProjectBranch, newBranch)
}

// Branches lists the repository branches.
func (p *Project) Branches(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Branch, error) {
	return p.branches().list(ctx, opts, nil, reqOpts...)
}

// Branch fetches a branch by name.
func (p *Project) Branch(ctx context.Context, name string, reqOpts ...RequestOption) (*Branch, error) {
	return p.branches().get(ctx, name, nil, reqOpts...)
}

// FindBranch returns the first branch matching criteria, or nil.
func (p *Project) FindBranch(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Branch, error) {
	return p.branches().findOne(ctx, criteria, reqOpts...)
}

// FindBranches returns every branch matching criteria.
func (p *Project) FindBranches(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Branch, error) {
	return p.branches().findAll(ctx, criteria, reqOpts...)
}

// Tag is a repository tag.
type Tag struct {
	*Entity
}

func newTag(e *Entity) *Tag {
	return &Tag{Entity: e}
}

// Name returns the tag name
func (t *Tag) Name() string { return t.GetString("name") }

// Commit returns the attributes of the tagged commit
func (t *Tag) Commit() Attributes { return t.GetMap("commit") }

func (p *Project) tags() *collection[*Tag] {
	return nested(p.Entity, ResProjectTag, newTag)
}

// Tags lists the repository tags.
func (p *Project) Tags(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Tag, error) {
	return p.tags().list(ctx, opts, nil, reqOpts...)
}

// FindTag returns the first tag matching criteria, or nil.
func (p *Project) FindTag(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Tag, error) {
	return p.tags().findOne(ctx, criteria, reqOpts...)
}

// FindTags returns every tag matching criteria.
func (p *Project) FindTags(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Tag, error) {
	return p.tags().findAll(ctx, criteria, reqOpts...)
}

// File is an entry of the repository tree.
type File struct {
	*Entity
}

func newFile(e *Entity) *File {
	return &File{Entity: e}
}

// Name returns the entry name
func (f *File) Name() string { return f.GetString("name") }

// Type returns "blob" or "tree"
func (f *File) Type() string { return f.GetString("type") }

// Mode returns the file mode
func (f *File) Mode() string { return f.GetString("mode") }

// ListFilesOptions selects the directory and revision of a tree listing.
type ListFilesOptions struct {
	ListOptions
	Path    string `url:"path,omitempty"`
	RefName string `url:"ref_name,omitempty"`
}

func (p *Project) files() *collection[*File] {
	return nested(p.Entity, ResProjectFile, newFile)
}

// Files lists the repository tree.
func (p *Project) Files(ctx context.Context, opts *ListFilesOptions, reqOpts ...RequestOption) ([]*File, error) {
	if opts == nil {
		opts = &ListFilesOptions{}
	}
	return p.files().list(ctx, &opts.ListOptions, opts, reqOpts...)
}

// FindFile returns the first entry of the root tree matching criteria, or nil.
func (p *Project) FindFile(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*File, error) {
	return p.files().findOne(ctx, criteria, reqOpts...)
}

// FindFiles returns every entry of the root tree matching criteria.
func (p *Project) FindFiles(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*File, error) {
	return p.files().findAll(ctx, criteria, reqOpts...)
}

// Commit is a repository commit, addressed by sha.
type Commit struct {
	*Entity
}

func newCommit(e *Entity) *Commit {
	return &Commit{Entity: e}
}

// SHA returns the commit id
func (c *Commit) SHA() string { return c.GetString("id") }

// ShortID returns the abbreviated commit id
func (c *Commit) ShortID() string { return c.GetString("short_id") }

// Title returns the first line of the commit message
func (c *Commit) Title() string { return c.GetString("title") }

// AuthorName returns the commit author
func (c *Commit) AuthorName() string { return c.GetString("author_name") }

// AuthorEmail returns the commit author email
func (c *Commit) AuthorEmail() string { return c.GetString("author_email") }

// CreatedAt returns the commit time
func (c *Commit) CreatedAt() time.Time { return c.GetTime("created_at") }

// Diff returns the per-file diffs of the commit.
func (c *Commit) Diff(ctx context.Context, opts ...RequestOption) ([]Attributes, error) {
	var diffs []Attributes
	if err := c.client.Do(ctx, http.MethodGet, c.path+"/diff", nil, nil, &diffs, opts...); err != nil {
		return nil, fmt.Errorf("diff of commit %s failed: %w", c.SHA(), err)
	}
	return diffs, nil
}

// ListCommitsOptions selects the revision of a commit listing.
type ListCommitsOptions struct {
	ListOptions
	RefName string `url:"ref_name,omitempty"`
}

func (p *Project) commits() *collection[*Commit] {
	return nested(p.Entity, ResProjectCommit, newCommit)
}

// Commits lists repository commits, newest first.
func (p *Project) Commits(ctx context.Context, opts *ListCommitsOptions, reqOpts ...RequestOption) ([]*Commit, error) {
	if opts == nil {
		opts = &ListCommitsOptions{}
	}
	return p.commits().list(ctx, &opts.ListOptions, opts, reqOpts...)
}

// Commit fetches a commit by sha or ref name.
func (p *Project) Commit(ctx context.Context, sha string, reqOpts ...RequestOption) (*Commit, error) {
	return p.commits().get(ctx, sha, nil, reqOpts...)
}

// FindCommit returns the first commit of the default branch matching
// criteria, or nil.
func (p *Project) FindCommit(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Commit, error) {
	return p.commits().findOne(ctx, criteria, reqOpts...)
}

// FindCommits returns every commit of the default branch matching criteria.
func (p *Project) FindCommits(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Commit, error) {
	return p.commits().findAll(ctx, criteria, reqOpts...)
}
