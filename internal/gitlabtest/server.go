// Package gitlabtest provides an in-memory GitLab API v3 server for tests.
//
// The server keeps resources in ordered collections addressed by their API
// path ("/projects", "/projects/2/issues", ...), paginates listings with
// page and per_page, echoes updates and records every request so tests can
// assert on query parameters such as sudo.
package gitlabtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const apiPrefix = "/api/v3"

// Token is the private token of the built-in administrator "root".
const Token = "root-private-token"

// RootID is the user id of the built-in administrator.
const RootID = 1

// SessionCookie is the name of the session cookie set by /session.
const SessionCookie = "_gitlab_session"

// defaultPerPage is the page size GitLab uses when per_page is absent.
const defaultPerPage = 20

// collections lists the API paths that hold listings; "*" matches one
// path segment.
var collections = []string{
	"/issues",
	"/groups",
	"/groups/*/members",
	"/hooks",
	"/projects",
	"/projects/*/repository/branches",
	"/projects/*/repository/tags",
	"/projects/*/repository/tree",
	"/projects/*/repository/commits",
	"/projects/*/keys",
	"/projects/*/events",
	"/projects/*/hooks",
	"/projects/*/issues",
	"/projects/*/issues/*/notes",
	"/projects/*/members",
	"/projects/*/merge_requests",
	"/projects/*/merge_requests/*/notes",
	"/projects/*/milestones",
	"/projects/*/snippets",
	"/projects/*/snippets/*/notes",
	"/projects/*/notes",
	"/users",
	"/users/*/keys",
	"/user_teams",
	"/user_teams/*/members",
	"/user_teams/*/projects",
}

// nameKeyed lists the collections whose items are addressed by name.
var nameKeyed = map[string]bool{
	"/projects/*/repository/branches": true,
	"/projects/*/repository/tags":     true,
	"/projects/*/repository/tree":     true,
}

// Request is a request received by the server.
type Request struct {
	Method string
	// Path is the escaped path relative to /api/v3
	Path  string
	Query url.Values
	Token string
	Sudo  string
	Body  []byte
}

// Option configures a Server.
type Option func(*Server)

// WithRepeatLastPage makes listings answer pages past the end with the last
// page instead of an empty one, as some GitLab versions do.
func WithRepeatLastPage() Option {
	return func(s *Server) {
		s.repeatLastPage = true
	}
}

// WithLogger logs every request handled by the server.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server is an in-memory GitLab API v3 server.
type Server struct {
	// URL is the GitLab base URL, without /api/v3; set by NewServer
	URL string

	handler        http.Handler
	logger         *zerolog.Logger
	repeatLastPage bool

	mu        sync.Mutex
	items     map[string][]map[string]any
	nextID    int
	sessions  map[string]int
	passwords map[int]string
	blobs     map[string][]byte
	failures  []func(*http.Request) int
	requests  []Request
}

// New creates an unstarted server; serve it with any http.Server.
// The server starts with the administrator "root" (id RootID, token Token).
func New(opts ...Option) *Server {
	nop := zerolog.Nop()
	s := &Server{
		logger:    &nop,
		items:     make(map[string][]map[string]any),
		nextID:    RootID + 1,
		sessions:  make(map[string]int),
		passwords: make(map[int]string),
		blobs:     make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.items["/users"] = []map[string]any{{
		"id":            RootID,
		"username":      "root",
		"email":         "admin@example.com",
		"name":          "Administrator",
		"state":         "active",
		"is_admin":      true,
		"private_token": Token,
	}}
	s.handler = s.router()

	return s
}

// NewServer starts a server on a local port that is closed when the test
// ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := New(opts...)
	srv := httptest.NewServer(s)
	s.URL = srv.URL
	t.Cleanup(srv.Close)

	return s
}

// ServeHTTP serves the GitLab API under /api/v3.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// router builds the route table.
func (s *Server) router() http.Handler {
	router := mux.NewRouter().UseEncodedPath()
	router.Use(s.recordRequests)

	api := router.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodPost)

	rest := api.NewRoute().Subrouter()
	rest.Use(s.authenticate)
	rest.HandleFunc("/projects/search/{query}", s.handleSearchProjects).Methods(http.MethodGet)
	rest.HandleFunc("/projects/user/{user_id}", s.handleAddProjectForUser).Methods(http.MethodPost)
	rest.HandleFunc("/projects/{id}/fork/{from}", s.handleForkFrom).Methods(http.MethodPost)
	rest.HandleFunc("/groups/{id}/projects/{project_id}", s.handleTransferProject).Methods(http.MethodPost)
	rest.PathPrefix("/").HandlerFunc(s.handleResource)

	return router
}

// AddUser registers a user that can log in with its username or email and
// password. Returns the stored user, including its private token.
func (s *Server) AddUser(username, email, password string, admin bool) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	user := map[string]any{
		"id":            id,
		"username":      username,
		"email":         email,
		"name":          username,
		"state":         "active",
		"is_admin":      admin,
		"private_token": fmt.Sprintf("token-%d", id),
		"created_at":    time.Date(2013, 5, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	s.items["/users"] = append(s.items["/users"], user)
	s.passwords[id] = password
	return clone(user)
}

// Seed appends items to the collection at path. Items without an id get
// one, except in collections addressed by name. Returns the stored items.
func (s *Server) Seed(path string, items ...map[string]any) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]map[string]any, 0, len(items))
	for _, item := range items {
		item = clone(item)
		if _, ok := item["id"]; !ok && !nameKeyed[collectionTemplate(path)] {
			item["id"] = s.allocID()
		}
		s.items[path] = append(s.items[path], item)
		s.mirrorIssue(path, item)
		stored = append(stored, clone(item))
	}
	return stored
}

// SeedProject creates a project and returns it.
func (s *Server) SeedProject(name string) map[string]any {
	return s.Seed("/projects", newProject(name, "root"))[0]
}

// SetBlob sets the content served for filepath at ref in a project.
func (s *Server) SetBlob(projectID int, ref, filepath string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[blobKey(strconv.Itoa(projectID), ref, filepath)] = content
}

// Item returns a copy of the item at path.
func (s *Server) Item(path string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, _ := s.lookup(path)
	if item == nil {
		return nil, false
	}
	return clone(item), true
}

// Items returns copies of the items of the collection at path.
func (s *Server) Items(path string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]any, 0, len(s.items[path]))
	for _, item := range s.items[path] {
		items = append(items, clone(item))
	}
	return items
}

// Fail makes requests with method to path (relative to /api/v3, escaped)
// answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.FailFunc(func(r *http.Request) int {
		if r.Method == method && strings.TrimPrefix(r.URL.EscapedPath(), apiPrefix) == path {
			return status
		}
		return 0
	})
}

// FailFunc registers a hook consulted before every request; a non-zero
// result is sent as the response status.
func (s *Server) FailFunc(fn func(r *http.Request) int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = append(s.failures, fn)
}

// Requests returns the recorded requests, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// ResetRequests clears the recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = nil
}

// recordRequests records requests and applies failure hooks.
func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.EscapedPath(), apiPrefix),
			Query:  r.URL.Query(),
			Token:  r.Header.Get("PRIVATE-TOKEN"),
			Sudo:   r.URL.Query().Get("sudo"),
			Body:   body,
		})
		failures := append([]func(*http.Request) int(nil), s.failures...)
		s.mu.Unlock()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			s.logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.EscapedPath()).
				Str("query", r.URL.RawQuery).
				Int("status", wrapped.status).
				Dur("duration", time.Since(start)).
				Msg("GitLab mock: request")
		}()

		for _, fail := range failures {
			if status := fail(r); status != 0 {
				writeError(wrapped, status)
				return
			}
		}

		next.ServeHTTP(wrapped, r)
	})
}

// authenticate resolves the calling user from the private token or the
// session cookie, then applies sudo.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		caller := s.caller(r)
		if caller == nil {
			s.mu.Unlock()
			writeError(w, http.StatusUnauthorized)
			return
		}

		if sudo := r.URL.Query().Get("sudo"); sudo != "" {
			if admin, _ := caller["is_admin"].(bool); !admin {
				s.mu.Unlock()
				writeError(w, http.StatusForbidden)
				return
			}
			if s.findUser(sudo) == nil {
				s.mu.Unlock()
				writeJSON(w, http.StatusNotFound, map[string]any{
					"message": "404 Not Found: No user id or username for: " + sudo,
				})
				return
			}
		}
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// caller returns the authenticated user of r. Must hold s.mu.
func (s *Server) caller(r *http.Request) map[string]any {
	if token := r.Header.Get("PRIVATE-TOKEN"); token != "" {
		for _, user := range s.items["/users"] {
			if user["private_token"] == token {
				return user
			}
		}
		return nil
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if id, ok := s.sessions[cookie.Value]; ok {
			return s.findUser(strconv.Itoa(id))
		}
	}
	return nil
}

// currentUser returns the user a request acts as. Must hold s.mu.
func (s *Server) currentUser(r *http.Request) map[string]any {
	if sudo := r.URL.Query().Get("sudo"); sudo != "" {
		return s.findUser(sudo)
	}
	return s.caller(r)
}

// findUser looks a user up by id or username. Must hold s.mu.
func (s *Server) findUser(idOrName string) map[string]any {
	for _, user := range s.items["/users"] {
		if fmt.Sprint(user["id"]) == idOrName || user["username"] == idOrName {
			return user
		}
	}
	return nil
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.items["/users"] {
		if (creds.Login == "" || user["username"] != creds.Login) &&
			(creds.Email == "" || user["email"] != creds.Email) {
			continue
		}
		id := toInt(user["id"])
		if pw, ok := s.passwords[id]; !ok || pw != creds.Password {
			break
		}

		session := fmt.Sprintf("session-%d-%d", id, len(s.sessions)+1)
		s.sessions[session] = id
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: session, Path: "/"})
		writeJSON(w, http.StatusCreated, user)
		return
	}

	writeError(w, http.StatusUnauthorized)
}

// handleResource serves the generic collection and item routes.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.EscapedPath(), apiPrefix)
	path = strings.TrimSuffix(path, "/")

	// The current user's resources live under its /users entry
	if path == "/user" || strings.HasPrefix(path, "/user/") {
		user := s.currentUser(r)
		path = fmt.Sprintf("/users/%v", user["id"]) + strings.TrimPrefix(path, "/user")
	}

	if isCollection(path) {
		s.serveCollection(w, r, path)
		return
	}

	if item, _ := s.lookup(path); item != nil {
		s.serveItem(w, r, path, item)
		return
	}

	parent, action := splitLast(path)
	if action == "blob" && collectionTemplate(parent) == "/projects/*/repository/commits" && r.Method == http.MethodGet {
		s.serveBlob(w, r, parent)
		return
	}
	if item, _ := s.lookup(parent); item != nil {
		s.serveAction(w, r, parent, item, action)
		return
	}

	writeError(w, http.StatusNotFound)
}

func (s *Server) serveCollection(w http.ResponseWriter, r *http.Request, path string) {
	switch r.Method {
	case http.MethodGet:
		s.serveList(w, r, s.filter(s.items[path], r.URL.Query()))

	case http.MethodPost:
		attrs, ok := decodeBody(w, r)
		if !ok {
			return
		}
		item := s.create(path, attrs, s.currentUser(r))
		writeJSON(w, http.StatusCreated, item)

	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveItem(w http.ResponseWriter, r *http.Request, path string, item map[string]any) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, item)

	case http.MethodPut:
		attrs, ok := decodeBody(w, r)
		if !ok {
			return
		}
		applyUpdate(item, attrs)
		writeJSON(w, http.StatusOK, item)

	case http.MethodDelete:
		parent, _ := splitLast(path)
		_, index := s.lookup(path)
		s.items[parent] = append(s.items[parent][:index], s.items[parent][index+1:]...)
		writeJSON(w, http.StatusOK, item)

	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

// serveAction handles the operations addressed below an item.
func (s *Server) serveAction(w http.ResponseWriter, r *http.Request, path string, item map[string]any, action string) {
	template := collectionTemplate(path)
	switch {
	case (action == "protect" || action == "unprotect") && template == "/projects/*/repository/branches" && r.Method == http.MethodPut:
		item["protected"] = action == "protect"
		writeJSON(w, http.StatusOK, item)

	case action == "raw" && template == "/projects/*/snippets" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, fmt.Sprint(item["code"]))

	case action == "diff" && template == "/projects/*/repository/commits" && r.Method == http.MethodGet:
		diff, ok := item["diff"]
		if !ok {
			diff = []any{}
		}
		writeJSON(w, http.StatusOK, diff)

	case action == "comments" && template == "/projects/*/merge_requests" && r.Method == http.MethodPost:
		attrs, ok := decodeBody(w, r)
		if !ok {
			return
		}
		if _, ok := attrs["note"]; !ok {
			writeError(w, http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"note":   attrs["note"],
			"author": s.currentUser(r),
		})

	case action == "fork" && template == "/projects" && r.Method == http.MethodDelete:
		delete(item, "forked_from_project")
		writeJSON(w, http.StatusOK, item)

	default:
		writeError(w, http.StatusNotFound)
	}
}

// serveBlob serves file content at the commit or ref addressed by path.
func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, path string) {
	segments := strings.Split(path, "/")
	key := blobKey(segments[2], unescape(segments[len(segments)-1]), r.URL.Query().Get("filepath"))
	content, ok := s.blobs[key]
	if !ok {
		writeError(w, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request, items []map[string]any) {
	query := r.URL.Query()
	page := max(queryInt(query, "page", 1), 1)
	perPage := max(queryInt(query, "per_page", defaultPerPage), 1)

	start := (page - 1) * perPage
	if start >= len(items) && s.repeatLastPage && len(items) > 0 {
		start = ((len(items) - 1) / perPage) * perPage
	}

	result := []map[string]any{}
	if start < len(items) {
		end := min(start+perPage, len(items))
		result = items[start:end]
	}
	writeJSON(w, http.StatusOK, result)
}

// filter applies query parameters naming string attributes, such as state.
func (s *Server) filter(items []map[string]any, query url.Values) []map[string]any {
	result := make([]map[string]any, 0, len(items))
outer:
	for _, item := range items {
		for key := range query {
			val, ok := item[key].(string)
			if ok && val != query.Get(key) {
				continue outer
			}
		}
		result = append(result, item)
	}
	return result
}

// create stores a new item in the collection at path. Must hold s.mu.
func (s *Server) create(path string, attrs map[string]any, author map[string]any) map[string]any {
	template := collectionTemplate(path)
	switch template {
	case "/projects":
		name, _ := attrs["name"].(string)
		item := newProject(name, fmt.Sprint(author["username"]))
		for k, v := range attrs {
			item[k] = v
		}
		attrs = item
	case "/projects/*/members", "/groups/*/members", "/user_teams/*/members":
		attrs["id"] = attrs["user_id"]
		if user := s.findUser(fmt.Sprint(attrs["user_id"])); user != nil {
			attrs["username"] = user["username"]
			attrs["name"] = user["name"]
			attrs["state"] = user["state"]
		}
		delete(attrs, "user_id")
	case "/user_teams/*/projects":
		attrs["id"] = attrs["project_id"]
		if project, _ := s.lookup(fmt.Sprintf("/projects/%v", attrs["project_id"])); project != nil {
			attrs["name"] = project["name"]
		}
		delete(attrs, "project_id")
	case "/projects/*/issues", "/projects/*/merge_requests":
		attrs["state"] = "opened"
		attrs["iid"] = len(s.items[path]) + 1
		attrs["project_id"] = toInt(strings.Split(path, "/")[2])
	case "/projects/*/issues/*/notes", "/projects/*/merge_requests/*/notes",
		"/projects/*/snippets/*/notes", "/projects/*/notes":
		attrs["author"] = author
	}

	if _, ok := attrs["id"]; !ok {
		attrs["id"] = s.allocID()
	}
	attrs["created_at"] = time.Now().UTC().Format(time.RFC3339)

	s.items[path] = append(s.items[path], attrs)
	s.mirrorIssue(path, attrs)
	return attrs
}

// mirrorIssue lists project issues in the global /issues as well.
func (s *Server) mirrorIssue(path string, item map[string]any) {
	if collectionTemplate(path) == "/projects/*/issues" {
		s.items["/issues"] = append(s.items["/issues"], item)
	}
}

func (s *Server) handleSearchProjects(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(unescape(mux.Vars(r)["query"]))

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []map[string]any
	for _, project := range s.items["/projects"] {
		if strings.Contains(strings.ToLower(fmt.Sprint(project["name"])), query) {
			matches = append(matches, project)
		}
	}
	s.serveList(w, r, matches)
}

func (s *Server) handleAddProjectForUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	attrs, ok := decodeBody(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.findUser(userID)
	if owner == nil {
		writeError(w, http.StatusNotFound)
		return
	}
	item := s.create("/projects", attrs, owner)
	item["owner"] = map[string]any{"id": owner["id"], "username": owner["username"]}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleForkFrom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	project, _ := s.lookup("/projects/" + vars["id"])
	from, _ := s.lookup("/projects/" + vars["from"])
	if project == nil || from == nil {
		writeError(w, http.StatusNotFound)
		return
	}
	if _, forked := project["forked_from_project"]; forked {
		writeError(w, http.StatusConflict)
		return
	}
	project["forked_from_project"] = map[string]any{"id": from["id"], "name": from["name"]}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleTransferProject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	group, _ := s.lookup("/groups/" + vars["id"])
	project, _ := s.lookup("/projects/" + vars["project_id"])
	if group == nil || project == nil {
		writeError(w, http.StatusNotFound)
		return
	}
	project["namespace"] = map[string]any{"id": group["id"], "path": group["path"]}
	project["path_with_namespace"] = fmt.Sprintf("%v/%v", group["path"], project["path"])
	projects, _ := group["projects"].([]any)
	group["projects"] = append(projects, project)
	writeJSON(w, http.StatusCreated, group)
}

// lookup returns the item at path and its index in the parent collection.
// Items match by id, by name, or (for projects) by "namespace/path".
// Must hold s.mu.
func (s *Server) lookup(path string) (map[string]any, int) {
	parent, key := splitLast(path)
	if !isCollection(parent) {
		return nil, -1
	}
	key = unescape(key)
	for i, item := range s.items[parent] {
		if id, ok := item["id"]; ok && fmt.Sprint(id) == key {
			return item, i
		}
	}
	for i, item := range s.items[parent] {
		if item["name"] == key || item["path_with_namespace"] == key {
			return item, i
		}
	}
	return nil, -1
}

// allocID returns a fresh id. Must hold s.mu.
func (s *Server) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

// isCollection reports whether path addresses a listing.
func isCollection(path string) bool {
	return templateOf(path) != ""
}

// collectionTemplate returns the template of the collection that path
// belongs to: path itself if it is a collection, else its parent's.
func collectionTemplate(path string) string {
	if t := templateOf(path); t != "" {
		return t
	}
	parent, _ := splitLast(path)
	return templateOf(parent)
}

// templateOf returns the collection template matching path, or "".
func templateOf(path string) string {
	segments := strings.Split(path, "/")
	for _, template := range collections {
		parts := strings.Split(template, "/")
		if len(parts) != len(segments) {
			continue
		}
		match := true
		for i, part := range parts {
			if part != "*" && part != segments[i] {
				match = false
				break
			}
		}
		if match {
			return template
		}
	}
	return ""
}

// applyUpdate merges attrs into item, translating state events.
func applyUpdate(item, attrs map[string]any) {
	for k, v := range attrs {
		if k == "state_event" {
			switch v {
			case "close":
				item["state"] = "closed"
			case "reopen":
				item["state"] = "reopened"
			case "activate":
				item["state"] = "active"
			}
			continue
		}
		item[k] = v
	}
	item["updated_at"] = time.Now().UTC().Format(time.RFC3339)
}

func newProject(name, namespace string) map[string]any {
	path := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	return map[string]any{
		"name":                name,
		"path":                path,
		"path_with_namespace": namespace + "/" + path,
		"description":         "",
		"default_branch":      "master",
		"public":              false,
		"namespace":           map[string]any{"path": namespace},
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	attrs := make(map[string]any)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest)
		return nil, false
	}
	if len(data) == 0 {
		return attrs, true
	}
	if err := json.Unmarshal(data, &attrs); err != nil {
		writeError(w, http.StatusBadRequest)
		return nil, false
	}
	return attrs, true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a GitLab style error response.
func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]any{
		"message": fmt.Sprintf("%d %s", status, http.StatusText(status)),
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func splitLast(path string) (string, string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func unescape(segment string) string {
	if s, err := url.PathUnescape(segment); err == nil {
		return s
	}
	return segment
}

func blobKey(projectID, ref, filepath string) string {
	return projectID + "|" + ref + "|" + filepath
}

func queryInt(query url.Values, key string, def int) int {
	if n, err := strconv.Atoi(query.Get(key)); err == nil {
		return n
	}
	return def
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

func clone(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
