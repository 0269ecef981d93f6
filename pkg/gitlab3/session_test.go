package gitlab3

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/yourname/gitlab3/internal/gitlabtest"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name          string
		login         string
		password      string
		expectedOK    bool
		expectedField string
	}{
		{name: "by username", login: "alice", password: "secret", expectedOK: true, expectedField: "login"},
		{name: "by email", login: "alice@example.com", password: "secret", expectedOK: true, expectedField: "email"},
		{name: "wrong password", login: "alice", password: "nope", expectedOK: false, expectedField: "login"},
		{name: "unknown user", login: "carol", password: "secret", expectedOK: false, expectedField: "login"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := gitlabtest.NewServer(t)
			alice := srv.AddUser("alice", "alice@example.com", "secret", false)
			client := NewClient(srv.URL, "")

			ok, err := client.Login(context.Background(), tc.login, tc.password)
			assertNoError(t, err)
			assertEquals(t, tc.expectedOK, ok)

			last, _ := srv.LastRequest()
			assertEquals(t, "/session", last.Path)

			var body map[string]any
			if err := json.Unmarshal(last.Body, &body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			assertEquals(t, tc.login, body[tc.expectedField])
			assertEquals(t, tc.password, body["password"])

			if !ok {
				assertEquals(t, "", client.Token())

				_, err := client.CurrentUser(context.Background())
				assertErrorIs(t, err, ErrAuthentication)
				return
			}

			assertEquals(t, alice["private_token"], client.Token())

			user, err := client.CurrentUser(context.Background())
			assertNoError(t, err)
			assertEquals(t, "alice", user.Username())
		})
	}
}

func TestLogin_SessionCookie(t *testing.T) {
	srv := gitlabtest.NewServer(t)
	srv.AddUser("alice", "alice@example.com", "secret", false)
	client := NewClient(srv.URL, "")
	ctx := context.Background()

	ok, err := client.Login(ctx, "alice", "secret")
	assertNoError(t, err)
	if !ok {
		t.Fatal("Expected login to succeed")
	}

	// Without a token the cookie authenticates
	client.SetToken("")

	user, err := client.CurrentUser(ctx)
	assertNoError(t, err)
	assertEquals(t, "alice", user.Username())

	last, _ := srv.LastRequest()
	assertEquals(t, "", last.Token)
}

func TestLogin_Errors(t *testing.T) {
	srv := gitlabtest.NewServer(t)
	srv.AddUser("alice", "alice@example.com", "secret", false)
	client := NewClient(srv.URL, "")

	srv.Fail(http.MethodPost, "/session", http.StatusInternalServerError)

	ok, err := client.Login(context.Background(), "alice", "secret")
	assertErrorIs(t, err, ErrServer)
	if ok {
		t.Error("Expected login to fail")
	}
}

func TestLogin_IgnoresSudo(t *testing.T) {
	srv := gitlabtest.NewServer(t)
	srv.AddUser("alice", "alice@example.com", "secret", false)
	client := NewClient(srv.URL, "")

	ok, err := client.Login(WithSudo(context.Background(), "root"), "alice", "secret")
	assertNoError(t, err)
	assertEquals(t, true, ok)

	last, _ := srv.LastRequest()
	assertEquals(t, "", last.Sudo)
}
