package gitlab3

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/yourname/gitlab3/internal/gitlabtest"
)

func TestProject_Accessors(t *testing.T) {
	srv, client := newTestClient(t)
	srv.Seed("/projects", map[string]any{
		"name":                "Alpha",
		"path":                "alpha",
		"path_with_namespace": "root/alpha",
		"description":         "First project",
		"default_branch":      "main",
		"public":              true,
		"web_url":             "http://gitlab/root/alpha",
	})

	projects, err := client.Projects(context.Background(), nil)
	assertNoError(t, err)
	if len(projects) != 1 {
		t.Fatalf("Expected 1 project, got %d", len(projects))
	}

	p := projects[0]
	assertEquals(t, "Alpha", p.Name())
	assertEquals(t, "alpha", p.Path())
	assertEquals(t, "root/alpha", p.PathWithNamespace())
	assertEquals(t, "First project", p.Description())
	assertEquals(t, "main", p.DefaultBranch())
	assertEquals(t, true, p.Public())
	assertEquals(t, "http://gitlab/root/alpha", p.WebURL())
}

func TestProject_AddAndDelete(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()

	p, err := client.AddProject(ctx, "Alpha", Attributes{"description": "First"})
	assertNoError(t, err)
	assertEquals(t, "Alpha", p.Name())
	assertEquals(t, "First", p.Description())
	assertEquals(t, "root/alpha", p.PathWithNamespace())

	found, err := client.FindProject(ctx, Attributes{"path_with_namespace": "root/alpha"})
	assertNoError(t, err)
	if found == nil || found.ID() != p.ID() {
		t.Fatalf("Expected to find project %d", p.ID())
	}

	assertNoError(t, client.DeleteProject(ctx, p))
	if len(srv.Items("/projects")) != 0 {
		t.Error("Expected project to be removed")
	}

	_, err = client.Project(ctx, p.ID())
	if !IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestProject_AddProjectForUser(t *testing.T) {
	srv, client := newTestClient(t)
	alice := srv.AddUser("alice", "alice@example.com", "secret", false)
	aliceID := alice["id"].(int)

	p, err := client.AddProjectForUser(context.Background(), aliceID, "shared", Attributes{"description": "d"})
	assertNoError(t, err)

	assertEquals(t, "alice/shared", p.PathWithNamespace())
	assertEquals(t, "/projects/"+itoa(p.ID()), p.ResourcePath())

	last, _ := srv.LastRequest()
	assertEquals(t, http.MethodPost, last.Method)
	assertEquals(t, "/projects/user/"+itoa(aliceID), last.Path)

	_, err = client.AddProjectForUser(context.Background(), 999, "orphan", nil)
	if !IsNotFound(err) {
		t.Errorf("Expected not found for unknown user, got %v", err)
	}
}

func TestProject_Search(t *testing.T) {
	srv, client := newTestClient(t)
	srv.SeedProject("alpha")
	srv.SeedProject("beta")
	srv.SeedProject("alphabet")

	projects, err := client.SearchProjects(context.Background(), "alpha", nil)
	assertNoError(t, err)

	if len(projects) != 2 {
		t.Fatalf("Expected 2 projects, got %d", len(projects))
	}
	assertEquals(t, "alpha", projects[0].Name())
	assertEquals(t, "alphabet", projects[1].Name())
	assertEquals(t, "/projects/"+itoa(projects[0].ID()), projects[0].ResourcePath())

	last, _ := srv.LastRequest()
	assertEquals(t, "/projects/search/alpha", last.Path)
}

func TestProject_Fork(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	alpha := srv.SeedProject("alpha")
	beta := srv.SeedProject("beta")

	p, sub := newProjectOn(t, alpha, client)

	assertNoError(t, p.ForkFrom(ctx, beta["id"].(int)))
	assertEquals(t, "beta", p.GetMap("forked_from_project")["name"])

	last, _ := srv.LastRequest()
	assertEquals(t, sub("/fork/"+itoa(beta["id"])), last.Path)

	err := p.ForkFrom(ctx, beta["id"].(int))
	assertErrorIs(t, err, ErrConflict)

	assertNoError(t, p.DeleteFork(ctx))
	item, _ := srv.Item(sub(""))
	if _, ok := item["forked_from_project"]; ok {
		t.Error("Expected fork relation to be removed")
	}
}

func TestProject_Blob(t *testing.T) {
	srv, client := newTestClient(t)
	seeded := srv.SeedProject("alpha")
	srv.SetBlob(seeded["id"].(int), "master", "docs/README.md", []byte("# Alpha\n"))

	p, sub := newProjectOn(t, seeded, client)

	data, err := p.Blob(context.Background(), "master", "docs/README.md")
	assertNoError(t, err)
	assertEquals(t, "# Alpha\n", string(data))

	last, _ := srv.LastRequest()
	assertEquals(t, sub("/repository/commits/master/blob"), last.Path)
	assertEquals(t, "docs/README.md", last.Query.Get("filepath"))

	_, err = p.Blob(context.Background(), "master", "missing.txt")
	if !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestProject_Branches(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)
	srv.Seed(sub("/repository/branches"),
		map[string]any{"name": "master", "protected": false, "commit": map[string]any{"id": "abc"}},
		map[string]any{"name": "feature/x", "protected": false},
	)

	branches, err := p.Branches(ctx, nil)
	assertNoError(t, err)
	if len(branches) != 2 {
		t.Fatalf("Expected 2 branches, got %d", len(branches))
	}
	assertEquals(t, "abc", branches[0].Commit()["id"])
	assertEquals(t, sub("/repository/branches/feature%2Fx"), branches[1].ResourcePath())

	t.Run("protect by name", func(t *testing.T) {
		assertNoError(t, p.ProtectBranch(ctx, "master"))
		item, _ := srv.Item(sub("/repository/branches/master"))
		assertEquals(t, true, item["protected"])

		assertNoError(t, p.UnprotectBranch(ctx, "master"))
		item, _ = srv.Item(sub("/repository/branches/master"))
		assertEquals(t, false, item["protected"])
	})

	t.Run("protect entity", func(t *testing.T) {
		branch, err := p.Branch(ctx, "feature/x")
		assertNoError(t, err)
		assertEquals(t, "feature/x", branch.Name())

		assertNoError(t, branch.Protect(ctx))
		assertEquals(t, true, branch.Protected())

		last, _ := srv.LastRequest()
		assertEquals(t, http.MethodPut, last.Method)
		assertEquals(t, sub("/repository/branches/feature%2Fx/protect"), last.Path)

		assertNoError(t, branch.Unprotect(ctx))
		assertEquals(t, false, branch.Protected())
	})

	t.Run("unknown branch", func(t *testing.T) {
		err := p.ProtectBranch(ctx, "missing")
		if !IsNotFound(err) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	found, err := p.FindBranch(ctx, Attributes{"protected": false, "name": "feature/x"})
	assertNoError(t, err)
	if found == nil {
		t.Fatal("Expected to find the branch")
	}
}

func TestProject_TagsFilesEvents(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)
	srv.Seed(sub("/repository/tags"), map[string]any{"name": "v1.0", "commit": map[string]any{"id": "abc"}})
	srv.Seed(sub("/repository/tree"),
		map[string]any{"name": "README.md", "type": "blob", "mode": "100644"},
		map[string]any{"name": "docs", "type": "tree", "mode": "040000"},
	)
	srv.Seed(sub("/events"), map[string]any{"action_name": "pushed to", "target_type": nil, "author_id": gitlabtest.RootID})

	tags, err := p.Tags(ctx, nil)
	assertNoError(t, err)
	if len(tags) != 1 || tags[0].Name() != "v1.0" || tags[0].Commit()["id"] != "abc" {
		t.Errorf("Unexpected tags: %v", tags)
	}

	files, err := p.Files(ctx, &ListFilesOptions{Path: "docs", RefName: "master"})
	assertNoError(t, err)
	if len(files) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(files))
	}
	assertEquals(t, "tree", files[1].Type())
	assertEquals(t, "100644", files[0].Mode())

	last, _ := srv.LastRequest()
	assertEquals(t, "docs", last.Query.Get("path"))
	assertEquals(t, "master", last.Query.Get("ref_name"))

	events, err := p.Events(ctx, nil)
	assertNoError(t, err)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	assertEquals(t, "pushed to", events[0].ActionName())
	assertEquals(t, gitlabtest.RootID, events[0].AuthorID())
	assertEquals(t, sub("/events"), events[0].ResourcePath())
}

func TestProject_Commits(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)
	srv.Seed(sub("/repository/commits"),
		map[string]any{
			"id":           "abc123",
			"short_id":     "abc",
			"title":        "Initial commit",
			"author_name":  "Root",
			"author_email": "admin@example.com",
			"created_at":   "2013-05-01T12:00:00Z",
			"diff":         []any{map[string]any{"new_path": "README.md", "diff": "+hello"}},
		},
		map[string]any{"id": "def456", "short_id": "def", "title": "Second"},
	)

	commits, err := p.Commits(ctx, &ListCommitsOptions{RefName: "master"})
	assertNoError(t, err)
	if len(commits) != 2 {
		t.Fatalf("Expected 2 commits, got %d", len(commits))
	}

	c, err := p.Commit(ctx, "abc123")
	assertNoError(t, err)
	assertEquals(t, "abc123", c.SHA())
	assertEquals(t, "abc", c.ShortID())
	assertEquals(t, "Initial commit", c.Title())
	assertEquals(t, "Root", c.AuthorName())
	assertEquals(t, "admin@example.com", c.AuthorEmail())
	assertEquals(t, 2013, c.CreatedAt().Year())

	diffs, err := c.Diff(ctx)
	assertNoError(t, err)
	if len(diffs) != 1 {
		t.Fatalf("Expected 1 diff, got %d", len(diffs))
	}
	assertEquals(t, "README.md", diffs[0]["new_path"])

	last, _ := srv.LastRequest()
	assertEquals(t, sub("/repository/commits/abc123/diff"), last.Path)

	empty, err := commits[1].Diff(ctx)
	assertNoError(t, err)
	if len(empty) != 0 {
		t.Errorf("Expected no diffs, got %d", len(empty))
	}
}

func TestIssue_StateTransitions(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, _ := newProjectOn(t, srv.SeedProject("alpha"), client)

	issue, err := p.AddIssue(ctx, "Crash", nil)
	assertNoError(t, err)
	assertEquals(t, 1, issue.IID())
	assertEquals(t, p.ID(), issue.ProjectID())

	assertNoError(t, issue.Close(ctx))
	assertEquals(t, "closed", issue.State())

	last, _ := srv.LastRequest()
	var body map[string]any
	assertNoError(t, json.Unmarshal(last.Body, &body))
	assertEquals(t, "close", body["state_event"])

	item, _ := srv.Item(issue.ResourcePath())
	assertEquals(t, "closed", item["state"])

	assertNoError(t, issue.Reopen(ctx))
	assertEquals(t, "reopened", issue.State())
	if len(issue.Changed()) != 0 {
		t.Errorf("Expected no pending changes, got %v", issue.Changed())
	}

	closed, err := p.Issues(ctx, &ListIssuesOptions{State: "closed"})
	assertNoError(t, err)
	if len(closed) != 0 {
		t.Errorf("Expected no closed issues, got %d", len(closed))
	}
}

func TestIssue_GlobalListing(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	alpha, _ := newProjectOn(t, srv.SeedProject("alpha"), client)
	beta, _ := newProjectOn(t, srv.SeedProject("beta"), client)

	_, err := alpha.AddIssue(ctx, "First", nil)
	assertNoError(t, err)
	second, err := beta.AddIssue(ctx, "Second", Attributes{"labels": []string{"bug"}})
	assertNoError(t, err)

	issues, err := client.Issues(ctx, nil)
	assertNoError(t, err)
	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(issues))
	}

	global := issues[1]
	assertEquals(t, second.ResourcePath(), global.ResourcePath())
	assertEquals(t, "bug", global.Labels()[0])

	assertNoError(t, global.Close(ctx))
	item, _ := srv.Item(second.ResourcePath())
	assertEquals(t, "closed", item["state"])

	found, err := client.FindIssues(ctx, Attributes{"title": "First"})
	assertNoError(t, err)
	if len(found) != 1 || found[0].ProjectID() != alpha.ID() {
		t.Errorf("Expected the first issue of alpha, got %v", found)
	}

	byTitle, err := beta.FindIssue(ctx, Attributes{"title": "Second"})
	assertNoError(t, err)
	assertEquals(t, "closed", byTitle.State())
}

func TestIssue_Notes(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, _ := newProjectOn(t, srv.SeedProject("alpha"), client)

	issue, err := p.AddIssue(ctx, "Crash", nil)
	assertNoError(t, err)

	note, err := issue.AddNote(ctx, "Reproduced")
	assertNoError(t, err)
	assertEquals(t, "Reproduced", note.Body())
	assertEquals(t, "root", note.Author()["username"])
	assertEquals(t, issue.ResourcePath()+"/notes/"+itoa(note.ID()), note.ResourcePath())
	if note.CreatedAt().IsZero() {
		t.Error("Expected a creation time")
	}

	notes, err := issue.Notes(ctx, nil)
	assertNoError(t, err)
	if len(notes) != 1 {
		t.Errorf("Expected 1 note, got %d", len(notes))
	}

	fetched, err := issue.Note(ctx, note.ID())
	assertNoError(t, err)
	assertEquals(t, "Reproduced", fetched.Body())

	wall, err := p.AddWallNote(ctx, "Hello")
	assertNoError(t, err)
	walls, err := p.WallNotes(ctx, nil)
	assertNoError(t, err)
	if len(walls) != 1 || walls[0].ID() != wall.ID() {
		t.Errorf("Expected the wall note, got %v", walls)
	}
	fetchedWall, err := p.WallNote(ctx, wall.ID())
	assertNoError(t, err)
	assertEquals(t, "Hello", fetchedWall.Body())
}

func TestMilestones(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, _ := newProjectOn(t, srv.SeedProject("alpha"), client)

	m, err := p.AddMilestone(ctx, "v1.0", Attributes{"due_date": "2013-06-01"})
	assertNoError(t, err)
	assertEquals(t, "v1.0", m.Title())
	assertEquals(t, "2013-06-01", m.DueDate())

	assertNoError(t, m.Set("state_event", "close"))
	assertNoError(t, m.Save(ctx))
	assertEquals(t, "closed", m.State())

	milestones, err := p.Milestones(ctx, nil)
	assertNoError(t, err)
	if len(milestones) != 1 {
		t.Errorf("Expected 1 milestone, got %d", len(milestones))
	}

	fetched, err := p.Milestone(ctx, m.ID())
	assertNoError(t, err)
	assertEquals(t, "closed", fetched.State())
}

func TestMergeRequests(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, sub := newProjectOn(t, srv.SeedProject("alpha"), client)

	mr, err := p.AddMergeRequest(ctx, "feature", "master", "Add feature", nil)
	assertNoError(t, err)
	assertEquals(t, "opened", mr.State())
	assertEquals(t, 1, mr.IID())
	assertEquals(t, "feature", mr.SourceBranch())
	assertEquals(t, "master", mr.TargetBranch())
	assertEquals(t, sub("/merge_requests/"+itoa(mr.ID())), mr.ResourcePath())

	comment, err := mr.PostComment(ctx, "LGTM")
	assertNoError(t, err)
	assertEquals(t, "LGTM", comment["note"])

	last, _ := srv.LastRequest()
	assertEquals(t, mr.ResourcePath()+"/comments", last.Path)

	note, err := mr.AddNote(ctx, "Merged soon")
	assertNoError(t, err)
	notes, err := mr.Notes(ctx, nil)
	assertNoError(t, err)
	if len(notes) != 1 {
		t.Errorf("Expected 1 note, got %d", len(notes))
	}
	fetchedNote, err := mr.Note(ctx, note.ID())
	assertNoError(t, err)
	assertEquals(t, "Merged soon", fetchedNote.Body())

	assertNoError(t, mr.Set("title", "Add feature X"))
	assertNoError(t, mr.Save(ctx))

	fetched, err := p.MergeRequest(ctx, mr.ID())
	assertNoError(t, err)
	assertEquals(t, "Add feature X", fetched.Title())

	opened, err := p.MergeRequests(ctx, &ListMergeRequestsOptions{State: "opened"})
	assertNoError(t, err)
	if len(opened) != 1 {
		t.Errorf("Expected 1 opened merge request, got %d", len(opened))
	}

	found, err := p.FindMergeRequest(ctx, Attributes{"source_branch": "feature"})
	assertNoError(t, err)
	if found == nil || found.ID() != mr.ID() {
		t.Error("Expected to find the merge request")
	}

}

func TestSnippets(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()
	p, _ := newProjectOn(t, srv.SeedProject("alpha"), client)

	s, err := p.AddSnippet(ctx, "hello", "hello.go", "package main\n", nil)
	assertNoError(t, err)
	assertEquals(t, "hello", s.Title())
	assertEquals(t, "hello.go", s.FileName())

	raw, err := s.Raw(ctx)
	assertNoError(t, err)
	assertEquals(t, "package main\n", string(raw))

	_, err = s.AddNote(ctx, "Nice")
	assertNoError(t, err)
	notes, err := s.Notes(ctx, nil)
	assertNoError(t, err)
	if len(notes) != 1 {
		t.Errorf("Expected 1 note, got %d", len(notes))
	}

	snippets, err := p.Snippets(ctx, nil)
	assertNoError(t, err)
	if len(snippets) != 1 {
		t.Errorf("Expected 1 snippet, got %d", len(snippets))
	}

	fetched, err := p.Snippet(ctx, s.ID())
	assertNoError(t, err)
	assertNoError(t, fetched.Delete(ctx))

	_, err = s.Raw(ctx)
	if !IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestAdd_RequiredParams(t *testing.T) {
	srv, client := newTestClient(t)
	ctx := context.Background()

	_, err := client.groups().add(ctx, Attributes{"name": "Team"})
	assertErrorIs(t, err, ErrMissingAttribute)

	_, err = client.users().add(ctx, Attributes{"email": "a@example.com", "username": "a", "name": "A"})
	assertErrorIs(t, err, ErrMissingAttribute)

	if len(srv.Requests()) != 0 {
		t.Errorf("Expected no requests, got %d", len(srv.Requests()))
	}

	_, err = topLevel(client, ResIssue, newIssue).add(ctx, Attributes{"title": "x"})
	assertErrorIs(t, err, ErrNotSupported)
}
