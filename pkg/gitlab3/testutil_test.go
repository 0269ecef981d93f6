package gitlab3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yourname/gitlab3/internal/gitlabtest"
)

// newTestClient starts a mock GitLab and returns a client authenticated as root.
func newTestClient(t *testing.T, opts ...gitlabtest.Option) (*gitlabtest.Server, *Client) {
	t.Helper()

	srv := gitlabtest.NewServer(t, opts...)
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.WarnLevel)
	client := NewClient(srv.URL, gitlabtest.Token, WithLogger(&logger))

	return srv, client
}

// requestsTo returns the recorded requests with method and path.
func requestsTo(srv *gitlabtest.Server, method, path string) []gitlabtest.Request {
	var matched []gitlabtest.Request
	for _, r := range srv.Requests() {
		if r.Method == method && r.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

// seedProjects creates n projects named project-1 ... project-n.
func seedProjects(srv *gitlabtest.Server, n int) []map[string]any {
	projects := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		projects = append(projects, srv.SeedProject(projectName(i)))
	}
	return projects
}

func itoa(v any) string {
	return fmt.Sprint(v)
}

func projectName(i int) string {
	return "project-" + string(rune('a'+(i-1)/26)) + string(rune('a'+(i-1)%26))
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

// assertErrorIs fails the test unless errors.Is(err, target).
func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching %v, got: %v", target, err)
	}
}

// assertEquals fails the test if expected and actual are not equal.
func assertEquals(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected %v, got %v", expected, actual)
	}
}
