package gitlab3

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Issue is a project issue.
type Issue struct {
	*Entity
}

func newIssue(e *Entity) *Issue {
	return &Issue{Entity: e}
}

// IID returns the project-scoped issue number
func (i *Issue) IID() int { return i.GetInt("iid") }

// ProjectID returns the id of the owning project
func (i *Issue) ProjectID() int { return i.GetInt("project_id") }

// Title returns the issue title
func (i *Issue) Title() string { return i.GetString("title") }

// Description returns the issue description
func (i *Issue) Description() string { return i.GetString("description") }

// State returns "opened", "closed" or "reopened"
func (i *Issue) State() string { return i.GetString("state") }

// Labels returns the issue labels
func (i *Issue) Labels() []string { return i.GetStrings("labels") }

// CreatedAt returns the creation time
func (i *Issue) CreatedAt() time.Time { return i.GetTime("created_at") }

// Close closes the issue.
func (i *Issue) Close(ctx context.Context, opts ...RequestOption) error {
	return i.transition(ctx, "close", "closed", opts)
}

// Reopen reopens a closed issue.
func (i *Issue) Reopen(ctx context.Context, opts ...RequestOption) error {
	return i.transition(ctx, "reopen", "reopened", opts)
}

// transition sends a state event and records the resulting state locally.
func (i *Issue) transition(ctx context.Context, event, state string, opts []RequestOption) error {
	if i.deleted {
		return localError(ErrDeleted, "cannot %s deleted issue", event)
	}
	body := Attributes{"state_event": event}
	if err := i.update(ctx, http.MethodPut, i.path, body, opts...); err != nil {
		return fmt.Errorf("%s issue %d failed: %w", event, i.ID(), err)
	}
	i.attrs["state"] = state
	return nil
}

func (i *Issue) notes() *collection[*Note] {
	return nested(i.Entity, ResProjectIssueNote, newNote)
}

// Notes lists the comments on the issue.
func (i *Issue) Notes(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Note, error) {
	return i.notes().list(ctx, opts, nil, reqOpts...)
}

// Note fetches one comment by id.
func (i *Issue) Note(ctx context.Context, id int, reqOpts ...RequestOption) (*Note, error) {
	return i.notes().get(ctx, id, nil, reqOpts...)
}

// AddNote comments on the issue.
func (i *Issue) AddNote(ctx context.Context, body string, reqOpts ...RequestOption) (*Note, error) {
	return i.notes().add(ctx, Attributes{"body": body}, reqOpts...)
}

// FindNote returns the first comment matching criteria, or nil.
func (i *Issue) FindNote(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Note, error) {
	return i.notes().findOne(ctx, criteria, reqOpts...)
}

// FindNotes returns every comment matching criteria.
func (i *Issue) FindNotes(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Note, error) {
	return i.notes().findAll(ctx, criteria, reqOpts...)
}

// ListIssuesOptions filters issue listings.
type ListIssuesOptions struct {
	ListOptions
	State  string   `url:"state,omitempty"`
	Labels []string `url:"labels,comma,omitempty"`
}

func (p *Project) issues() *collection[*Issue] {
	return nested(p.Entity, ResProjectIssue, newIssue)
}

// Issues lists the project issues.
func (p *Project) Issues(ctx context.Context, opts *ListIssuesOptions, reqOpts ...RequestOption) ([]*Issue, error) {
	if opts == nil {
		opts = &ListIssuesOptions{}
	}
	return p.issues().list(ctx, &opts.ListOptions, opts, reqOpts...)
}

// Issue fetches a project issue by id.
func (p *Project) Issue(ctx context.Context, id int, reqOpts ...RequestOption) (*Issue, error) {
	return p.issues().get(ctx, id, nil, reqOpts...)
}

// AddIssue opens an issue. attrs holds the optional parameters
// (description, assignee_id, milestone_id, labels).
func (p *Project) AddIssue(ctx context.Context, title string, attrs Attributes, reqOpts ...RequestOption) (*Issue, error) {
	return p.issues().add(ctx, withAttr(attrs, "title", title), reqOpts...)
}

// FindIssue returns the first project issue matching criteria, or nil.
func (p *Project) FindIssue(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Issue, error) {
	return p.issues().findOne(ctx, criteria, reqOpts...)
}

// FindIssues returns every project issue matching criteria.
func (p *Project) FindIssues(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Issue, error) {
	return p.issues().findAll(ctx, criteria, reqOpts...)
}

// UpdateIssue saves the local changes of i.
func (p *Project) UpdateIssue(ctx context.Context, i *Issue, reqOpts ...RequestOption) error {
	return i.Save(ctx, reqOpts...)
}

// userIssues lists /issues but re-roots each issue under its project, so
// the returned issues can be edited and closed.
func (c *Client) userIssues() *collection[*Issue] {
	def := defs.mustGet(ResProjectIssue)
	return topLevel(c, ResIssue, func(e *Entity) *Issue {
		path := fmt.Sprintf("/projects/%d%s", e.GetInt("project_id"), def.Path)
		return newIssue(newEntity(c, def, path, e.attrs))
	})
}

// Issues lists the issues of the current user across all projects.
func (c *Client) Issues(ctx context.Context, opts *ListIssuesOptions, reqOpts ...RequestOption) ([]*Issue, error) {
	if opts == nil {
		opts = &ListIssuesOptions{}
	}
	return c.userIssues().list(ctx, &opts.ListOptions, opts, reqOpts...)
}

// FindIssue returns the first issue of the current user matching criteria,
// or nil.
func (c *Client) FindIssue(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Issue, error) {
	return c.userIssues().findOne(ctx, criteria, reqOpts...)
}

// FindIssues returns every issue of the current user matching criteria.
func (c *Client) FindIssues(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Issue, error) {
	return c.userIssues().findAll(ctx, criteria, reqOpts...)
}

// Note is a comment on an issue, merge request, snippet or project wall.
type Note struct {
	*Entity
}

func newNote(e *Entity) *Note {
	return &Note{Entity: e}
}

// Body returns the note text
func (n *Note) Body() string { return n.GetString("body") }

// Author returns the author attributes
func (n *Note) Author() Attributes { return n.GetMap("author") }

// CreatedAt returns the creation time
func (n *Note) CreatedAt() time.Time { return n.GetTime("created_at") }

func (p *Project) wallNotes() *collection[*Note] {
	return nested(p.Entity, ResProjectWallNote, newNote)
}

// WallNotes lists the notes on the project wall.
func (p *Project) WallNotes(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Note, error) {
	return p.wallNotes().list(ctx, opts, nil, reqOpts...)
}

// WallNote fetches a wall note by id.
func (p *Project) WallNote(ctx context.Context, id int, reqOpts ...RequestOption) (*Note, error) {
	return p.wallNotes().get(ctx, id, nil, reqOpts...)
}

// AddWallNote posts a note on the project wall.
func (p *Project) AddWallNote(ctx context.Context, body string, reqOpts ...RequestOption) (*Note, error) {
	return p.wallNotes().add(ctx, Attributes{"body": body}, reqOpts...)
}

// FindWallNote returns the first wall note matching criteria, or nil.
func (p *Project) FindWallNote(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Note, error) {
	return p.wallNotes().findOne(ctx, criteria, reqOpts...)
}

// FindWallNotes returns every wall note matching criteria.
func (p *Project) FindWallNotes(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Note, error) {
	return p.wallNotes().findAll(ctx, criteria, reqOpts...)
}

// Milestone is a project milestone.
type Milestone struct {
	*Entity
}

func newMilestone(e *Entity) *Milestone {
	return &Milestone{Entity: e}
}

// Title returns the milestone title
func (m *Milestone) Title() string { return m.GetString("title") }

// Description returns the milestone description
func (m *Milestone) Description() string { return m.GetString("description") }

// State returns "active" or "closed"
func (m *Milestone) State() string { return m.GetString("state") }

// DueDate returns the due date as sent by GitLab (YYYY-MM-DD)
func (m *Milestone) DueDate() string { return m.GetString("due_date") }

func (p *Project) milestones() *collection[*Milestone] {
	return nested(p.Entity, ResProjectMilestone, newMilestone)
}

// Milestones lists the project milestones.
func (p *Project) Milestones(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Milestone, error) {
	return p.milestones().list(ctx, opts, nil, reqOpts...)
}

// Milestone fetches a milestone by id.
func (p *Project) Milestone(ctx context.Context, id int, reqOpts ...RequestOption) (*Milestone, error) {
	return p.milestones().get(ctx, id, nil, reqOpts...)
}

// AddMilestone creates a milestone. attrs holds the optional parameters
// (description, due_date).
func (p *Project) AddMilestone(ctx context.Context, title string, attrs Attributes, reqOpts ...RequestOption) (*Milestone, error) {
	return p.milestones().add(ctx, withAttr(attrs, "title", title), reqOpts...)
}

// UpdateMilestone saves the local changes of m.
func (p *Project) UpdateMilestone(ctx context.Context, m *Milestone, reqOpts ...RequestOption) error {
	return m.Save(ctx, reqOpts...)
}

// FindMilestone returns the first milestone matching criteria, or nil.
func (p *Project) FindMilestone(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Milestone, error) {
	return p.milestones().findOne(ctx, criteria, reqOpts...)
}

// FindMilestones returns every milestone matching criteria.
func (p *Project) FindMilestones(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Milestone, error) {
	return p.milestones().findAll(ctx, criteria, reqOpts...)
}
