package gitlab3

import (
	"context"
)

// Member is a user's membership in a project, group or team.
type Member struct {
	*Entity
}

func newMember(e *Entity) *Member {
	return &Member{Entity: e}
}

// Username returns the member username
func (m *Member) Username() string { return m.GetString("username") }

// Name returns the member display name
func (m *Member) Name() string { return m.GetString("name") }

// State returns the account state
func (m *Member) State() string { return m.GetString("state") }

// AccessLevel returns the membership access level (AccessLevelGuest ...)
func (m *Member) AccessLevel() int { return m.GetInt("access_level") }

// SetAccessLevel changes the access level locally; Save sends it.
func (m *Member) SetAccessLevel(level int) error {
	return m.Set("access_level", level)
}

// memberAttrs builds the parameters for adding a member.
func memberAttrs(userID, accessLevel int) Attributes {
	return Attributes{"user_id": userID, "access_level": accessLevel}
}

func (p *Project) members() *collection[*Member] {
	return nested(p.Entity, ResProjectMember, newMember)
}

// Members lists the project members.
func (p *Project) Members(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Member, error) {
	return p.members().list(ctx, opts, nil, reqOpts...)
}

// Member fetches a project member by user id.
func (p *Project) Member(ctx context.Context, userID int, reqOpts ...RequestOption) (*Member, error) {
	return p.members().get(ctx, userID, nil, reqOpts...)
}

// AddMember adds a user to the project.
func (p *Project) AddMember(ctx context.Context, userID, accessLevel int, reqOpts ...RequestOption) (*Member, error) {
	return p.members().add(ctx, memberAttrs(userID, accessLevel), reqOpts...)
}

// FindMember returns the first project member matching criteria, or nil.
func (p *Project) FindMember(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Member, error) {
	return p.members().findOne(ctx, criteria, reqOpts...)
}

// FindMembers returns every project member matching criteria.
func (p *Project) FindMembers(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Member, error) {
	return p.members().findAll(ctx, criteria, reqOpts...)
}

// UpdateMember saves the local changes of m.
func (p *Project) UpdateMember(ctx context.Context, m *Member, reqOpts ...RequestOption) error {
	return m.Save(ctx, reqOpts...)
}

// DeleteMember removes m from the project.
func (p *Project) DeleteMember(ctx context.Context, m *Member, reqOpts ...RequestOption) error {
	return m.Delete(ctx, reqOpts...)
}

func (g *Group) members() *collection[*Member] {
	return nested(g.Entity, ResGroupMember, newMember)
}

// Members lists the group members.
func (g *Group) Members(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Member, error) {
	return g.members().list(ctx, opts, nil, reqOpts...)
}

// AddMember adds a user to the group.
func (g *Group) AddMember(ctx context.Context, userID, accessLevel int, reqOpts ...RequestOption) (*Member, error) {
	return g.members().add(ctx, memberAttrs(userID, accessLevel), reqOpts...)
}

// FindMember returns the first group member matching criteria, or nil.
func (g *Group) FindMember(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Member, error) {
	return g.members().findOne(ctx, criteria, reqOpts...)
}

// FindMembers returns every group member matching criteria.
func (g *Group) FindMembers(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Member, error) {
	return g.members().findAll(ctx, criteria, reqOpts...)
}

// DeleteMember removes m from the group.
func (g *Group) DeleteMember(ctx context.Context, m *Member, reqOpts ...RequestOption) error {
	return m.Delete(ctx, reqOpts...)
}

func (t *Team) members() *collection[*Member] {
	return nested(t.Entity, ResTeamMember, newMember)
}

// Members lists the team members.
func (t *Team) Members(ctx context.Context, opts *ListOptions, reqOpts ...RequestOption) ([]*Member, error) {
	return t.members().list(ctx, opts, nil, reqOpts...)
}

// Member fetches a team member by user id.
func (t *Team) Member(ctx context.Context, userID int, reqOpts ...RequestOption) (*Member, error) {
	return t.members().get(ctx, userID, nil, reqOpts...)
}

// AddMember adds a user to the team.
func (t *Team) AddMember(ctx context.Context, userID, accessLevel int, reqOpts ...RequestOption) (*Member, error) {
	return t.members().add(ctx, memberAttrs(userID, accessLevel), reqOpts...)
}

// FindMember returns the first team member matching criteria, or nil.
func (t *Team) FindMember(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) (*Member, error) {
	return t.members().findOne(ctx, criteria, reqOpts...)
}

// FindMembers returns every team member matching criteria.
func (t *Team) FindMembers(ctx context.Context, criteria Attributes, reqOpts ...RequestOption) ([]*Member, error) {
	return t.members().findAll(ctx, criteria, reqOpts...)
}

// UpdateMember saves the local changes of m.
func (t *Team) UpdateMember(ctx context.Context, m *Member, reqOpts ...RequestOption) error {
	return m.Save(ctx, reqOpts...)
}

// DeleteMember removes m from the team.
func (t *Team) DeleteMember(ctx context.Context, m *Member, reqOpts ...RequestOption) error {
	return m.Delete(ctx, reqOpts...)
}
