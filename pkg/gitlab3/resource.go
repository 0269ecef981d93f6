package gitlab3

import (
	"fmt"
	"sort"
	"sync"
)

// Action is an operation supported by a resource definition.
type Action uint8

const (
	ActionList Action = 1 << iota
	ActionGet
	ActionAdd
	ActionEdit
	ActionDelete
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionGet:
		return "get"
	case ActionAdd:
		return "add"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Definition describes one GitLab resource type: where it lives relative to
// its parent, which attribute identifies it and which actions the API offers.
type Definition struct {
	// Name is the unique resource name (e.g., "project", "project_issue")
	Name string

	// Plural is the listing name used for lookups (e.g., "projects")
	Plural string

	// Parent is the name of the parent definition, empty for top-level resources
	Parent string

	// Path is the collection segment relative to the parent (e.g., "/issues")
	Path string

	// KeyName is the attribute used in the entity URL ("id", "name"),
	// empty for resources that cannot be addressed individually
	KeyName string

	// Actions is the set of supported actions
	Actions Action

	// RequiredParams lists the attributes required when adding
	RequiredParams []string
}

// Supports reports whether the definition offers the given action.
func (d *Definition) Supports(a Action) bool {
	return d.Actions&a != 0
}

// require returns ErrNotSupported when the action is not offered.
func (d *Definition) require(a Action) error {
	if d.Supports(a) {
		return nil
	}
	return localError(ErrNotSupported, "%s does not support %s", d.Name, a)
}

// Registry holds resource definitions by name.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates a new empty resource registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// Register registers a resource definition.
// Returns an error if a definition with the same name is already registered
// or if its parent is unknown.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" {
		return fmt.Errorf("resource name cannot be empty")
	}

	if def.Path == "" {
		return fmt.Errorf("resource %q: path cannot be empty", def.Name)
	}

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("resource %q already registered", def.Name)
	}

	if def.Parent != "" {
		if _, exists := r.defs[def.Parent]; !exists {
			return fmt.Errorf("resource %q: parent %q not registered", def.Name, def.Parent)
		}
	}

	r.defs[def.Name] = def
	return nil
}

// Get retrieves a definition by name.
// Returns nil if the resource is not registered.
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defs[name]
}

// TopLevel retrieves a top-level definition by its plural name.
// Returns nil if no top-level resource has that name.
func (r *Registry) TopLevel(plural string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, def := range r.defs {
		if def.Parent == "" && def.Plural == plural {
			return def
		}
	}
	return nil
}

// Children returns the definitions nested under the named parent, sorted by name.
func (r *Registry) Children(parent string) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var children []*Definition
	for _, def := range r.defs {
		if def.Parent == parent && parent != "" {
			children = append(children, def)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children
}

// List returns all registered resource names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.defs)
}

// mustGet returns a registered definition or panics. Only used for the
// built-in definitions, which are registered at init.
func (r *Registry) mustGet(name string) *Definition {
	def := r.Get(name)
	if def == nil {
		panic(fmt.Sprintf("gitlab3: resource %q not registered", name))
	}
	return def
}

// Names of the built-in resource definitions.
const (
	ResCurrentUser        = "current_user"
	ResCurrentUserKey     = "current_user_key"
	ResIssue              = "issue"
	ResGroup              = "group"
	ResGroupMember        = "group_member"
	ResSystemHook         = "system_hook"
	ResProject            = "project"
	ResProjectBranch      = "project_branch"
	ResProjectDeployKey   = "project_deploy_key"
	ResProjectEvent       = "project_event"
	ResProjectHook        = "project_hook"
	ResProjectIssue       = "project_issue"
	ResProjectIssueNote   = "project_issue_note"
	ResProjectMember      = "project_member"
	ResProjectMR          = "project_merge_request"
	ResProjectMRNote      = "project_merge_request_note"
	ResProjectMilestone   = "project_milestone"
	ResProjectSnippet     = "project_snippet"
	ResProjectSnippetNote = "project_snippet_note"
	ResProjectTag         = "project_tag"
	ResProjectFile        = "project_file"
	ResProjectCommit      = "project_commit"
	ResProjectWallNote    = "project_wall_note"
	ResUser               = "user"
	ResUserKey            = "user_key"
	ResTeam               = "team"
	ResTeamMember         = "team_member"
	ResTeamProject        = "team_project"
)

const (
	allActions = ActionList | ActionGet | ActionAdd | ActionEdit | ActionDelete
)

// Definitions returns the GitLab v3 resource definitions in registration
// order (parents before children).
func Definitions() []*Definition {
	return []*Definition{
		{Name: ResCurrentUser, Plural: "user", Path: "/user", Actions: ActionGet},
		{Name: ResCurrentUserKey, Plural: "keys", Parent: ResCurrentUser, Path: "/keys", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionDelete, RequiredParams: []string{"title", "key"}},

		{Name: ResIssue, Plural: "issues", Path: "/issues", KeyName: "id", Actions: ActionList},

		{Name: ResGroup, Plural: "groups", Path: "/groups", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionDelete, RequiredParams: []string{"name", "path"}},
		{Name: ResGroupMember, Plural: "members", Parent: ResGroup, Path: "/members", KeyName: "id",
			Actions: ActionList | ActionAdd | ActionDelete, RequiredParams: []string{"user_id", "access_level"}},

		{Name: ResSystemHook, Plural: "hooks", Path: "/hooks", KeyName: "id",
			Actions: ActionList | ActionAdd | ActionDelete, RequiredParams: []string{"url"}},

		{Name: ResProject, Plural: "projects", Path: "/projects", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionDelete, RequiredParams: []string{"name"}},
		{Name: ResProjectBranch, Plural: "branches", Parent: ResProject, Path: "/repository/branches", KeyName: "name",
			Actions: ActionList | ActionGet},
		{Name: ResProjectDeployKey, Plural: "keys", Parent: ResProject, Path: "/keys", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionDelete, RequiredParams: []string{"title", "key"}},
		{Name: ResProjectEvent, Plural: "events", Parent: ResProject, Path: "/events", Actions: ActionList},
		{Name: ResProjectHook, Plural: "hooks", Parent: ResProject, Path: "/hooks", KeyName: "id",
			Actions: allActions, RequiredParams: []string{"url"}},
		{Name: ResProjectIssue, Plural: "issues", Parent: ResProject, Path: "/issues", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionEdit, RequiredParams: []string{"title"}},
		{Name: ResProjectIssueNote, Plural: "notes", Parent: ResProjectIssue, Path: "/notes", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd, RequiredParams: []string{"body"}},
		{Name: ResProjectMember, Plural: "members", Parent: ResProject, Path: "/members", KeyName: "id",
			Actions: allActions, RequiredParams: []string{"user_id", "access_level"}},
		{Name: ResProjectMR, Plural: "merge_requests", Parent: ResProject, Path: "/merge_requests", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionEdit, RequiredParams: []string{"source_branch", "target_branch", "title"}},
		{Name: ResProjectMRNote, Plural: "notes", Parent: ResProjectMR, Path: "/notes", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd, RequiredParams: []string{"body"}},
		{Name: ResProjectMilestone, Plural: "milestones", Parent: ResProject, Path: "/milestones", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionEdit, RequiredParams: []string{"title"}},
		{Name: ResProjectSnippet, Plural: "snippets", Parent: ResProject, Path: "/snippets", KeyName: "id",
			Actions: allActions, RequiredParams: []string{"title", "file_name", "code"}},
		{Name: ResProjectSnippetNote, Plural: "notes", Parent: ResProjectSnippet, Path: "/notes", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd, RequiredParams: []string{"body"}},
		{Name: ResProjectTag, Plural: "tags", Parent: ResProject, Path: "/repository/tags", KeyName: "name", Actions: ActionList},
		{Name: ResProjectFile, Plural: "files", Parent: ResProject, Path: "/repository/tree", Actions: ActionList},
		{Name: ResProjectCommit, Plural: "commits", Parent: ResProject, Path: "/repository/commits", KeyName: "id",
			Actions: ActionList | ActionGet},
		{Name: ResProjectWallNote, Plural: "wall_notes", Parent: ResProject, Path: "/notes", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd, RequiredParams: []string{"body"}},

		{Name: ResUser, Plural: "users", Path: "/users", KeyName: "id",
			Actions: allActions, RequiredParams: []string{"email", "password", "username", "name"}},
		{Name: ResUserKey, Plural: "keys", Parent: ResUser, Path: "/keys", KeyName: "id",
			Actions: ActionAdd, RequiredParams: []string{"title", "key"}},

		{Name: ResTeam, Plural: "teams", Path: "/user_teams", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd, RequiredParams: []string{"name", "path"}},
		{Name: ResTeamMember, Plural: "members", Parent: ResTeam, Path: "/members", KeyName: "id",
			Actions: allActions, RequiredParams: []string{"user_id", "access_level"}},
		{Name: ResTeamProject, Plural: "projects", Parent: ResTeam, Path: "/projects", KeyName: "id",
			Actions: ActionList | ActionGet | ActionAdd | ActionDelete, RequiredParams: []string{"project_id", "greatest_access_level"}},
	}
}

// defs holds the built-in definitions used by the typed accessors.
var defs = DefaultRegistry()

// DefaultRegistry returns a registry populated with Definitions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range Definitions() {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}
