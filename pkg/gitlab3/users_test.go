package gitlab3

import (
	"context"
	"net/http"
	"testing"

	"github.com/yourname/gitlab3/internal/gitlabtest"
)

func TestUsers(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	u, err := client.AddUser(ctx, "alice@example.com", "secret", "alice", "Alice", Attributes{"projects_limit": 10})
	assertNoError(t, err)
	assertEquals(t, "alice", u.Username())
	assertEquals(t, "Alice", u.Name())
	assertEquals(t, "alice@example.com", u.Email())
	assertEquals(t, false, u.IsAdmin())
	if u.CreatedAt().IsZero() {
		t.Error("Expected a creation time")
	}

	users, err := client.Users(ctx, nil)
	assertNoError(t, err)
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	assertEquals(t, true, users[0].IsAdmin())

	found, err := client.FindUser(ctx, Attributes{"username": "alice"})
	assertNoError(t, err)
	if found == nil || found.ID() != u.ID() {
		t.Fatal("Expected to find alice")
	}

	assertNoError(t, found.Set("name", "Alice A."))
	assertNoError(t, client.UpdateUser(ctx, found))

	fetched, err := client.User(ctx, u.ID())
	assertNoError(t, err)
	assertEquals(t, "Alice A.", fetched.Name())

	admins, err := client.FindUsers(ctx, Attributes{"is_admin": true})
	assertNoError(t, err)
	if len(admins) != 1 || admins[0].Username() != "root" {
		t.Errorf("Expected only root to be admin, got %v", admins)
	}

	key, err := fetched.AddSSHKey(ctx, "laptop", "ssh-rsa AAAA")
	assertNoError(t, err)
	assertEquals(t, "laptop", key.Title())
	assertEquals(t, "/users/"+itoa(u.ID())+"/keys/"+itoa(key.ID()), key.ResourcePath())

	assertNoError(t, client.DeleteUser(ctx, fetched))
	_, err = client.User(ctx, u.ID())
	if !IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()

	me, err := client.CurrentUser(ctx)
	assertNoError(t, err)
	assertEquals(t, "root", me.Username())
	assertEquals(t, "Administrator", me.Name())
	assertEquals(t, "admin@example.com", me.Email())
	assertEquals(t, gitlabtest.Token, me.PrivateToken())
	assertEquals(t, "/user", me.ResourcePath())

	key, err := me.AddSSHKey(ctx, "laptop", "ssh-rsa AAAA")
	assertNoError(t, err)
	assertEquals(t, "ssh-rsa AAAA", key.Key())
	assertEquals(t, "/user/keys/"+itoa(key.ID()), key.ResourcePath())

	last, _ := srv.LastRequest()
	assertEquals(t, "/user/keys", last.Path)

	keys, err := me.SSHKeys(ctx, nil)
	assertNoError(t, err)
	if len(keys) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(keys))
	}

	found, err := me.FindSSHKey(ctx, Attributes{"title": "laptop"})
	assertNoError(t, err)
	if found == nil || found.ID() != key.ID() {
		t.Fatal("Expected to find the key")
	}

	fetched, err := me.SSHKey(ctx, key.ID())
	assertNoError(t, err)
	assertNoError(t, fetched.Delete(ctx))

	keys, err = me.SSHKeys(ctx, nil)
	assertNoError(t, err)
	if len(keys) != 0 {
		t.Errorf("Expected no keys, got %d", len(keys))
	}

	assertErrorIs(t, me.Delete(ctx), ErrNotSupported)
}

func TestDeployKeys(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)

	key, err := p.AddDeployKey(ctx, "ci", "ssh-rsa BBBB")
	assertNoError(t, err)
	assertEquals(t, sub("/keys/"+itoa(key.ID())), key.ResourcePath())

	keys, err := p.DeployKeys(ctx, nil)
	assertNoError(t, err)
	if len(keys) != 1 {
		t.Errorf("Expected 1 deploy key, got %d", len(keys))
	}

	fetched, err := p.DeployKey(ctx, key.ID())
	assertNoError(t, err)
	assertEquals(t, "ci", fetched.Title())
}

func TestProject_Members(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	alice := srv.AddUser("alice", "alice@example.com", "secret", false)
	aliceID := alice["id"].(int)
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)

	m, err := p.AddMember(ctx, aliceID, AccessLevelDeveloper)
	assertNoError(t, err)
	assertEquals(t, aliceID, m.ID())
	assertEquals(t, "alice", m.Username())
	assertEquals(t, "active", m.State())
	assertEquals(t, AccessLevelDeveloper, m.AccessLevel())
	assertEquals(t, sub("/members/"+itoa(aliceID)), m.ResourcePath())

	assertNoError(t, m.SetAccessLevel(AccessLevelMaster))
	assertNoError(t, m.Save(ctx))

	fetched, err := p.Member(ctx, aliceID)
	assertNoError(t, err)
	assertEquals(t, AccessLevelMaster, fetched.AccessLevel())

	found, err := p.FindMember(ctx, Attributes{"username": "alice"})
	assertNoError(t, err)
	if found == nil {
		t.Fatal("Expected to find alice")
	}

	masters, err := p.FindMembers(ctx, Attributes{"access_level": AccessLevelMaster})
	assertNoError(t, err)
	if len(masters) != 1 {
		t.Errorf("Expected 1 master, got %d", len(masters))
	}

	members, err := p.Members(ctx, nil)
	assertNoError(t, err)
	if len(members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(members))
	}

	assertNoError(t, fetched.Delete(ctx))
	if len(srv.Items(sub("/members"))) != 0 {
		t.Error("Expected member to be removed")
	}
}

func TestGroups(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	alice := srv.AddUser("alice", "alice@example.com", "secret", false)
	seeded := srv.SeedProject("alpha")

	g, err := client.AddGroup(ctx, "Team", "team")
	assertNoError(t, err)
	assertEquals(t, "Team", g.Name())
	assertEquals(t, "team", g.Path())

	assertNoError(t, g.TransferProject(ctx, seeded["id"].(int)))

	last, _ := srv.LastRequest()
	assertEquals(t, http.MethodPost, last.Method)
	assertEquals(t, "/groups/"+itoa(g.ID())+"/projects/"+itoa(seeded["id"]), last.Path)

	fetched, err := client.Group(ctx, g.ID())
	assertNoError(t, err)
	projects := fetched.Projects()
	if len(projects) != 1 {
		t.Fatalf("Expected 1 group project, got %d", len(projects))
	}
	assertEquals(t, "team/alpha", projects[0].PathWithNamespace())
	assertEquals(t, "/projects/"+itoa(seeded["id"]), projects[0].ResourcePath())

	if g.Projects() != nil {
		t.Error("Expected no projects in the create response")
	}

	err = g.TransferProject(ctx, 999)
	if !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}

	member, err := g.AddMember(ctx, alice["id"].(int), AccessLevelReporter)
	assertNoError(t, err)
	assertEquals(t, "alice", member.Username())

	members, err := g.Members(ctx, nil)
	assertNoError(t, err)
	if len(members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(members))
	}

	found, err := g.FindMember(ctx, Attributes{"access_level": AccessLevelReporter})
	assertNoError(t, err)
	if found == nil {
		t.Error("Expected to find the reporter")
	}

	groups, err := client.FindGroups(ctx, Attributes{"path": "team"})
	assertNoError(t, err)
	if len(groups) != 1 {
		t.Errorf("Expected 1 group, got %d", len(groups))
	}

	byName, err := client.FindGroup(ctx, Attributes{"name": "Team"})
	assertNoError(t, err)
	assertNoError(t, client.DeleteGroup(ctx, byName))

	all, err := client.Groups(ctx, nil)
	assertNoError(t, err)
	if len(all) != 0 {
		t.Errorf("Expected no groups, got %d", len(all))
	}
}

func TestTeams(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	alice := srv.AddUser("alice", "alice@example.com", "secret", false)
	seeded := srv.SeedProject("alpha")

	team, err := client.AddTeam(ctx, "Core", "core")
	assertNoError(t, err)
	assertEquals(t, "Core", team.Name())
	assertEquals(t, "core", team.Path())
	assertEquals(t, "/user_teams/"+itoa(team.ID()), team.ResourcePath())

	_, err = team.AddMember(ctx, alice["id"].(int), AccessLevelGuest)
	assertNoError(t, err)
	member, err := team.Member(ctx, alice["id"].(int))
	assertNoError(t, err)
	assertEquals(t, AccessLevelGuest, member.AccessLevel())

	members, err := team.Members(ctx, nil)
	assertNoError(t, err)
	if len(members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(members))
	}

	tp, err := team.AddProject(ctx, seeded["id"].(int), AccessLevelDeveloper)
	assertNoError(t, err)
	assertEquals(t, "alpha", tp.Name())
	assertEquals(t, AccessLevelDeveloper, tp.GreatestAccessLevel())

	fetched, err := team.Project(ctx, seeded["id"].(int))
	assertNoError(t, err)
	assertEquals(t, seeded["id"], fetched.ID())

	projects, err := team.Projects(ctx, nil)
	assertNoError(t, err)
	if len(projects) != 1 {
		t.Errorf("Expected 1 team project, got %d", len(projects))
	}

	found, err := client.FindTeam(ctx, Attributes{"path": "core"})
	assertNoError(t, err)
	if found == nil || found.ID() != team.ID() {
		t.Error("Expected to find the team")
	}

	teams, err := client.Teams(ctx, nil)
	assertNoError(t, err)
	if len(teams) != 1 {
		t.Errorf("Expected 1 team, got %d", len(teams))
	}

	byID, err := client.Team(ctx, team.ID())
	assertNoError(t, err)
	assertEquals(t, "Core", byID.Name())
}

func TestHooks(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)

	t.Run("project hook", func(t *testing.T) {
		hook, err := p.AddHook(ctx, "http://example.com/hook")
		assertNoError(t, err)
		assertEquals(t, "http://example.com/hook", hook.URL())

		srv.ResetRequests()
		assertErrorIs(t, hook.Test(ctx), ErrNotSupported)
		if len(srv.Requests()) != 0 {
			t.Errorf("Expected no requests, got %d", len(srv.Requests()))
		}

		assertNoError(t, hook.SetURL("http://example.com/other"))
		assertNoError(t, hook.Save(ctx))

		fetched, err := p.Hook(ctx, hook.ID())
		assertNoError(t, err)
		assertEquals(t, "http://example.com/other", fetched.URL())

		found, err := p.FindHook(ctx, Attributes{"url": "http://example.com/other"})
		assertNoError(t, err)
		if found == nil {
			t.Error("Expected to find the hook")
		}

		hooks, err := p.Hooks(ctx, nil)
		assertNoError(t, err)
		if len(hooks) != 1 || hooks[0].ResourcePath() != sub("/hooks/"+itoa(hook.ID())) {
			t.Errorf("Unexpected hooks: %v", hooks)
		}
	})

	t.Run("system hook", func(t *testing.T) {
		hook, err := client.AddSystemHook(ctx, "http://example.com/system")
		assertNoError(t, err)

		assertNoError(t, hook.Test(ctx))
		last, _ := srv.LastRequest()
		assertEquals(t, http.MethodGet, last.Method)
		assertEquals(t, "/hooks/"+itoa(hook.ID()), last.Path)

		assertNoError(t, hook.SetURL("http://example.com/changed"))
		assertErrorIs(t, hook.Save(ctx), ErrNotSupported)

		found, err := client.FindSystemHook(ctx, Attributes{"url": "http://example.com/system"})
		assertNoError(t, err)
		if found == nil {
			t.Fatal("Expected to find the system hook")
		}

		assertNoError(t, client.DeleteSystemHook(ctx, found))
		hooks, err := client.SystemHooks(ctx, nil)
		assertNoError(t, err)
		if len(hooks) != 0 {
			t.Errorf("Expected no system hooks, got %d", len(hooks))
		}

		srv.Fail(http.MethodGet, "/hooks/"+itoa(hook.ID()), http.StatusInternalServerError)
		assertErrorIs(t, hook.Test(ctx), ErrServer)
	})
}
