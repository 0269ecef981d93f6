package gitlab3

import (
	"context"
	"fmt"
	"net/http"
)

// Group is a GitLab group (namespace).
type Group struct {
	*Entity
}

func newGroup(e *Entity) *Group {
	return &Group{Entity: e}
}

// Name returns the group name
func (g *Group) Name() string { return g.GetString("name") }

// Path returns the group path
func (g *Group) Path() string { return g.GetString("path") }

// OwnerID returns the id of the owning user
func (g *Group) OwnerID() int { return g.GetInt("owner_id") }

// Projects returns the group projects included in the group representation.
func (g *Group) Projects() []*Project {
	raw, ok := g.attrs["projects"].([]any)
	if !ok {
		return nil
	}
	col := g.client.projects()
	projects := make([]*Project, 0, len(raw))
	for _, item := range raw {
		if attrs, ok := item.(map[string]any); ok {
			projects = append(projects, col.entity(attrs))
		}
	}
	return projects
}

// TransferProject moves a project into the group (admin only).
func (g *Group) TransferProject(ctx context.Context, projectID int, opts ...RequestOption) error {
	path := fmt.Sprintf("%s/projects/%d", g.path, projectID)
	if err := g.client.Do(ctx, http.MethodPost, path, nil, nil, nil, opts...); err != nil {
		return fmt.Errorf("transfer project %d to group %s failed: %w", projectID, g.Name(), err)
	}
	return nil
}

func (c *Client) groups() *collection[*Group] {
	return topLevel(c, ResGroup, newGroup)
}

// Groups lists the groups.
func (c *Client) Groups(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Group, error) {
	return c.groups().list(ctx, opts, nil, reqOpts...)
}

// Group fetches a group by id, including its projects.
func (c *Client) Group(ctx context.Context, id int, reqOpts ...RequestOption) (*Group, error) {
	return c.groups().get(ctx, id, nil, reqOpts...)
}

// AddGroup creates a group.
func (c *Client) AddGroup(ctx context.Context, name, path string, reqOpts ...RequestOption) (*Group, error) {
	return c.groups().add(ctx, Attributes{"name": name, "path": path}, reqOpts...)
}

// DeleteGroup deletes g.
func (c *Client) DeleteGroup(ctx context.Context, g *Group, reqOpts ...RequestOption) error {
	return g.Delete(ctx, reqOpts...)
}

// FindGroup returns the first group matching criteria, or nil.
func (c *Client) FindGroup(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Group, error) {
	return c.groups().findOne(ctx, criteria, reqOpts...)
}

// FindGroups returns every group matching criteria.
func (c *Client) FindGroups(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Group, error) {
	return c.groups().findAll(ctx, criteria, reqOpts...)
}

// Team is a user team (GitLab 5.x).
type Team struct {
	*Entity
}

func newTeam(e *Entity) *Team {
	return &Team{Entity: e}
}

// Name returns the team name
func (t *Team) Name() string { return t.GetString("name") }

// Path returns the team path
func (t *Team) Path() string { return t.GetString("path") }

// TeamProject is a project assigned to a team.
type TeamProject struct {
	*Entity
}

func newTeamProject(e *Entity) *TeamProject {
	return &TeamProject{Entity: e}
}

// Name returns the project name
func (tp *TeamProject) Name() string { return tp.GetString("name") }

// GreatestAccessLevel returns the highest access level granted to members
func (tp *TeamProject) GreatestAccessLevel() int { return tp.GetInt("greatest_access_level") }

func (t *Team) projects() *collection[*TeamProject] {
	return nested(t.Entity, ResTeamProject, newTeamProject)
}

// Projects lists the projects assigned to the team.
func (t *Team) Projects(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*TeamProject, error) {
	return t.projects().list(ctx, opts, nil, reqOpts...)
}

// Project fetches an assigned project by id.
func (t *Team) Project(ctx context.Context, projectID int, reqOpts ...RequestOption) (*TeamProject, error) {
	return t.projects().get(ctx, projectID, nil, reqOpts...)
}

// AddProject assigns a project to the team.
func (t *Team) AddProject(ctx context.Context, projectID, greatestAccessLevel int, reqOpts ...RequestOption) (*TeamProject, error) {
	attrs := Attributes{"project_id": projectID, "greatest_access_level": greatestAccessLevel}
	return t.projects().add(ctx, attrs, reqOpts...)
}

// DeleteProject removes tp from the team.
func (t *Team) DeleteProject(ctx context.Context, tp *TeamProject, reqOpts ...RequestOption) error {
	return tp.Delete(ctx, reqOpts...)
}

// FindProject returns the first assigned project matching criteria, or nil.
func (t *Team) FindProject(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*TeamProject, error) {
	return t.projects().findOne(ctx, criteria, reqOpts...)
}

// FindProjects returns every assigned project matching criteria.
func (t *Team) FindProjects(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*TeamProject, error) {
	return t.projects().findAll(ctx, criteria, reqOpts...)
}

func (c *Client) teams() *collection[*Team] {
	return topLevel(c, ResTeam, newTeam)
}

// Teams lists the user teams.
func (c *Client) Teams(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Team, error) {
	return c.teams().list(ctx, opts, nil, reqOpts...)
}

// Team fetches a team by id.
func (c *Client) Team(ctx context.Context, id int, reqOpts ...RequestOption) (*Team, error) {
	return c.teams().get(ctx, id, nil, reqOpts...)
}

// AddTeam creates a team.
func (c *Client) AddTeam(ctx context.Context, name, path string, reqOpts ...RequestOption) (*Team, error) {
	return c.teams().add(ctx, Attributes{"name": name, "path": path}, reqOpts...)
}

// FindTeam returns the first team matching criteria, or nil.
func (c *Client) FindTeam(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Team, error) {
	return c.teams().findOne(ctx, criteria, reqOpts...)
}

// FindTeams returns every team matching criteria.
func (c *Client) FindTeams(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Team, error) {
	return c.teams().findAll(ctx, criteria, reqOpts...)
}
