package gitlab3

import (
	"context"
	"fmt"
	"net/http"
)

// MergeRequest is a project merge request.
type MergeRequest struct {
	*Entity
}

func newMergeRequest(e *Entity) *MergeRequest {
	return &MergeRequest{Entity: e}
}

// IID returns the project-scoped merge request number
func (m *MergeRequest) IID() int { return m.GetInt("iid") }

// Title returns the merge request title
func (m *MergeRequest) Title() string { return m.GetString("title") }

// State returns "opened", "merged" or "closed"
func (m *MergeRequest) State() string { return m.GetString("state") }

// SourceBranch returns the branch to merge
func (m *MergeRequest) SourceBranch() string { return m.GetString("source_branch") }

// TargetBranch returns the branch merged into
func (m *MergeRequest) TargetBranch() string { return m.GetString("target_branch") }

// PostComment adds a comment to the merge request discussion.
func (m *MergeRequest) PostComment(ctx context.Context, note string, opts ...RequestOption) (Attributes, error) {
	var comment Attributes
	body := Attributes{"note": note}
	if err := m.client.Do(ctx, http.MethodPost, m.path+"/comments", nil, body, &comment, opts...); err != nil {
		return nil, fmt.Errorf("comment on merge request %d failed: %w", m.ID(), err)
	}
	return comment, nil
}

func (m *MergeRequest) notes() *collection[*Note] {
	return nested(m.Entity, ResProjectMRNote, newNote)
}

// Notes lists the notes on the merge request.
func (m *MergeRequest) Notes(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Note, error) {
	return m.notes().list(ctx, opts, nil, reqOpts...)
}

// Note fetches one note by id.
func (m *MergeRequest) Note(ctx context.Context, id int, reqOpts ...RequestOption) (*Note, error) {
	return m.notes().get(ctx, id, nil, reqOpts...)
}

// AddNote adds a note to the merge request.
func (m *MergeRequest) AddNote(ctx context.Context, body string, reqOpts ...RequestOption) (*Note, error) {
	return m.notes().add(ctx, Attributes{"body": body}, reqOpts...)
}

// FindNote returns the first note matching criteria, or nil.
func (m *MergeRequest) FindNote(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Note, error) {
	return m.notes().findOne(ctx, criteria, reqOpts...)
}

// FindNotes returns every note matching criteria.
func (m *MergeRequest) FindNotes(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Note, error) {
	return m.notes().findAll(ctx, criteria, reqOpts...)
}

// ListMergeRequestsOptions filters the merge request listing.
type ListMergeRequestsOptions struct {
	ListOptions
	State string `url:"state,omitempty"`
}

func (p *Project) mergeRequests() *collection[*MergeRequest] {
	return nested(p.Entity, ResProjectMR, newMergeRequest)
}

// MergeRequests lists the project merge requests.
func (p *Project) MergeRequests(ctx context.Context, opts *ListMergeRequestsOptions, reqOpts ...RequestOption) ([]*MergeRequest, error) {
	if opts == nil {
		opts = &ListMergeRequestsOptions{}
	}
	return p.mergeRequests().list(ctx, &opts.ListOptions, opts, reqOpts...)
}

// MergeRequest fetches a merge request by id.
func (p *Project) MergeRequest(ctx context.Context, id int, reqOpts ...RequestOption) (*MergeRequest, error) {
	return p.mergeRequests().get(ctx, id, nil, reqOpts...)
}

// AddMergeRequest opens a merge request from source into target.
// attrs holds the optional parameters (assignee_id).
func (p *Project) AddMergeRequest(ctx context.Context, source, target, title string, attrs Attributes, reqOpts ...RequestOption) (*MergeRequest, error) {
	attrs = withAttr(attrs, "source_branch", source)
	attrs["target_branch"] = target
	attrs["title"] = title
	return p.mergeRequests().add(ctx, attrs, reqOpts...)
}

// FindMergeRequest returns the first merge request matching criteria, or nil.
func (p *Project) FindMergeRequest(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*MergeRequest, error) {
	return p.mergeRequests().findOne(ctx, criteria, reqOpts...)
}

// FindMergeRequests returns every merge request matching criteria.
func (p *Project) FindMergeRequests(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*MergeRequest, error) {
	return p.mergeRequests().findAll(ctx, criteria, reqOpts...)
}

// UpdateMergeRequest saves the local changes of mr.
func (p *Project) UpdateMergeRequest(ctx context.Context, mr *MergeRequest, reqOpts ...RequestOption) error {
	return mr.Save(ctx, reqOpts...)
}

// Snippet is a project snippet.
type Snippet struct {
	*Entity
}

func newSnippet(e *Entity) *Snippet {
	return &Snippet{Entity: e}
}

// Title returns the snippet title
func (s *Snippet) Title() string { return s.GetString("title") }

// FileName returns the snippet file name
func (s *Snippet) FileName() string { return s.GetString("file_name") }

// Raw returns the snippet content.
func (s *Snippet) Raw(ctx context.Context, opts ...RequestOption) ([]byte, error) {
	data, err := s.client.DoRaw(ctx, http.MethodGet, s.path+"/raw", nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("raw snippet %d failed: %w", s.ID(), err)
	}
	return data, nil
}

func (s *Snippet) notes() *collection[*Note] {
	return nested(s.Entity, ResProjectSnippetNote, newNote)
}

// Notes lists the notes on the snippet.
func (s *Snippet) Notes(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Note, error) {
	return s.notes().list(ctx, opts, nil, reqOpts...)
}

// Note fetches one note by id.
func (s *Snippet) Note(ctx context.Context, id int, reqOpts ...RequestOption) (*Note, error) {
	return s.notes().get(ctx, id, nil, reqOpts...)
}

// AddNote adds a note to the snippet.
func (s *Snippet) AddNote(ctx context.Context, body string, reqOpts ...RequestOption) (*Note, error) {
	return s.notes().add(ctx, Attributes{"body": body}, reqOpts...)
}

// FindNote returns the first note matching criteria, or nil.
func (s *Snippet) FindNote(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Note, error) {
	return s.notes().findOne(ctx, criteria, reqOpts...)
}

// FindNotes returns every note matching criteria.
func (s *Snippet) FindNotes(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Note, error) {
	return s.notes().findAll(ctx, criteria, reqOpts...)
}

func (p *Project) snippets() *collection[*Snippet] {
	return nested(p.Entity, ResProjectSnippet, newSnippet)
}

// Snippets lists the project snippets.
func (p *Project) Snippets(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Snippet, error) {
	return p.snippets().list(ctx, opts, nil, reqOpts...)
}

// Snippet fetches a snippet by id.
func (p *Project) Snippet(ctx context.Context, id int, reqOpts ...RequestOption) (*Snippet, error) {
	return p.snippets().get(ctx, id, nil, reqOpts...)
}

// AddSnippet creates a snippet. attrs holds the optional parameters (lifetime).
func (p *Project) AddSnippet(ctx context.Context, title, fileName, code string, attrs Attributes, reqOpts ...RequestOption) (*Snippet, error) {
	attrs = withAttr(attrs, "title", title)
	attrs["file_name"] = fileName
	attrs["code"] = code
	return p.snippets().add(ctx, attrs, reqOpts...)
}

// UpdateSnippet saves the local changes of s.
func (p *Project) UpdateSnippet(ctx context.Context, s *Snippet, reqOpts ...RequestOption) error {
	return s.Save(ctx, reqOpts...)
}

// DeleteSnippet deletes s.
func (p *Project) DeleteSnippet(ctx context.Context, s *Snippet, reqOpts ...RequestOption) error {
	return s.Delete(ctx, reqOpts...)
}

// FindSnippet returns the first snippet matching criteria, or nil.
func (p *Project) FindSnippet(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Snippet, error) {
	return p.snippets().findOne(ctx, criteria, reqOpts...)
}

// FindSnippets returns every snippet matching criteria.
func (p *Project) FindSnippets(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Snippet, error) {
	return p.snippets().findAll(ctx, criteria, reqOpts...)
}

// Event is an entry of the project activity feed.
type Event struct {
	*Entity
}

func newEvent(e *Entity) *Event {
	return &Event{Entity: e}
}

// ActionName returns the event action ("pushed to", "opened", ...)
func (e *Event) ActionName() string { return e.GetString("action_name") }

// TargetType returns the type of the event target
func (e *Event) TargetType() string { return e.GetString("target_type") }

// AuthorID returns the id of the acting user
func (e *Event) AuthorID() int { return e.GetInt("author_id") }

func (p *Project) events() *collection[*Event] {
	return nested(p.Entity, ResProjectEvent, newEvent)
}

// Events lists the project activity feed.
func (p *Project) Events(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Event, error) {
	return p.events().list(ctx, opts, nil, reqOpts...)
}

// FindEvent returns the first event matching criteria, or nil.
func (p *Project) FindEvent(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Event, error) {
	return p.events().findOne(ctx, criteria, reqOpts...)
}

// FindEvents returns every event matching criteria, newest first.
func (p *Project) FindEvents(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Event, error) {
	return p.events().findAll(ctx, criteria, reqOpts...)
}
