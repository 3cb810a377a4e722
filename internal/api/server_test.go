package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nboulfrad/taskforge/internal/auth"
	"github.com/nboulfrad/taskforge/internal/infrastructure/config"
	"github.com/nboulfrad/taskforge/internal/infrastructure/logging"
	"github.com/nboulfrad/taskforge/internal/task"
)

// testServer creates a Server backed by a temp-file SQLite database with
// the full schema applied.
func testServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	issuer := auth.NewTokenIssuer(
		"test-access-secret-0123456789abcdef",
		"test-refresh-secret-0123456789abcde",
		15*time.Minute,
		7*24*time.Hour,
	)
	users := auth.NewUserRepository(db)
	authSvc := auth.NewService(users, auth.NewSessionRepository(db), issuer, 4, log)

	wsCfg := config.WebSocketConfig{
		MaxMessageSize: 8192,
		PingInterval:   30,
		PongTimeout:    10,
	}
	hub := NewHub(wsCfg, log)
	taskSvc := task.NewService(task.NewRepository(db), users, hub, log)

	srv, err := New(Deps{
		Config: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.ServerTimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS:      wsCfg,
		Logger:  log,
		Auth:    authSvc,
		Tasks:   taskSvc,
		Hub:     hub,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv
}

// setupTestDB creates a temp-file SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_login INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_done INTEGER NOT NULL DEFAULT 0,
			owner_id INTEGER NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE task_collaborators (
			task_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			PRIMARY KEY (task_id, user_id),
			FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE refresh_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return db
}

// doJSON performs a JSON request against the router and decodes the
// response body into out (when out is non-nil).
func doJSON(t *testing.T, handler http.Handler, method, path, bearer string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

// signupAndLogin registers a user and returns their tokens.
func signupAndLogin(t *testing.T, handler http.Handler, name string) (accessToken, refreshToken string) {
	t.Helper()

	creds := map[string]string{"name": name, "password": "Abcde123@"}
	if rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", creds, nil); rec.Code != http.StatusCreated {
		t.Fatalf("signup %q: status %d body %s", name, rec.Code, rec.Body.String())
	}

	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", creds, &login); rec.Code != http.StatusOK {
		t.Fatalf("login %q: status %d body %s", name, rec.Code, rec.Body.String())
	}
	return login.AccessToken, login.RefreshToken
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	var body map[string]any
	rec := doJSON(t, router, http.MethodGet, "/api/v1/health", "", nil, &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestAuthLifecycle(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	// Signup returns the new account's id and name
	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	creds := map[string]string{"name": "Alice", "password": "Abcde123@"}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", creds, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", rec.Code, rec.Body.String())
	}
	if created.ID != 1 || created.Name != "Alice" {
		t.Errorf("signup body = %+v, want id 1 name Alice", created)
	}

	// Login returns both tokens and sets the refresh cookie
	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", creds, &login)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	if login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatal("login returned empty tokens")
	}
	if login.User.Name != "Alice" {
		t.Errorf("login user = %+v", login.User)
	}
	cookieSet := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName && c.Value == login.RefreshToken && c.HttpOnly {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("refresh cookie not set as HTTP-only")
	}

	// Refresh mints a new access token
	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": login.RefreshToken}, &refreshed)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", rec.Code, rec.Body.String())
	}
	if refreshed.AccessToken == "" {
		t.Fatal("refresh returned empty access token")
	}

	// Logout revokes the session
	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "",
		map[string]string{"refresh_token": login.RefreshToken}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d body %s", rec.Code, rec.Body.String())
	}

	// The same refresh token is now rejected
	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": login.RefreshToken}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status %d, want 401", rec.Code)
	}
}

func TestAuthRefreshViaCookie(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	_, refreshToken := signupAndLogin(t, router, "Alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: refreshToken})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("cookie refresh: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestSignupErrors(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing password", map[string]string{"name": "Alice"}, http.StatusBadRequest},
		{"weak password", map[string]string{"name": "Alice", "password": "weak"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// Duplicate name conflicts
	creds := map[string]string{"name": "Alice", "password": "Abcde123@"}
	doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", creds, nil)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", creds, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup: status %d, want 409", rec.Code)
	}
}

func TestLoginCollapsesFailures(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	signupAndLogin(t, router, "Alice")

	var unknownBody, wrongBody Error
	unknown := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"name": "nobody", "password": "Abcde123@"}, &unknownBody)
	wrong := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"name": "Alice", "password": "Wrong123@"}, &wrongBody)

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("statuses %d/%d, want 401/401", unknown.Code, wrong.Code)
	}
	// Identical error shape prevents account enumeration
	if unknownBody != wrongBody {
		t.Errorf("error bodies differ: %+v vs %+v", unknownBody, wrongBody)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/tasks"},
		{http.MethodPost, "/api/v1/tasks"},
	}
	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", p.method, p.path, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users", "not-a-token", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", rec.Code)
	}
}

func TestUserEndpoints(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	access, _ := signupAndLogin(t, router, "Alice")
	signupAndLogin(t, router, "Bob")

	// /users/me returns the caller without a password hash
	var me map[string]any
	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", access, nil, &me)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	if me["name"] != "Alice" {
		t.Errorf("me = %v", me)
	}
	if _, leaked := me["password_hash"]; leaked {
		t.Error("password hash leaked in /users/me")
	}

	// Listing shows both accounts
	var list struct {
		Users []map[string]any `json:"users"`
	}
	rec = doJSON(t, router, http.MethodGet, "/api/v1/users", access, nil, &list)
	if rec.Code != http.StatusOK || len(list.Users) != 2 {
		t.Fatalf("users: status %d count %d", rec.Code, len(list.Users))
	}

	// Rename self works, rename another account is forbidden
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/users/1", access, map[string]string{"name": "Alicia"}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("rename self: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/users/2", access, map[string]string{"name": "Hijack"}, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rename other: status %d, want 403", rec.Code)
	}
}

func TestTaskEndpoints(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	alice, _ := signupAndLogin(t, router, "Alice")
	bob, _ := signupAndLogin(t, router, "Bob")

	// Create
	var created task.Task
	rec := doJSON(t, router, http.MethodPost, "/api/v1/tasks", alice,
		map[string]string{"name": "Buy milk", "description": "semi-skimmed"}, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}

	taskPath := fmt.Sprintf("/api/v1/tasks/%d", created.ID)

	// A stranger cannot see it
	rec = doJSON(t, router, http.MethodGet, taskPath, bob, nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger get: status %d, want 403", rec.Code)
	}

	// Owner adds bob as collaborator (bob's account has id 2)
	rec = doJSON(t, router, http.MethodPost, taskPath+"/collaborators", alice,
		map[string]int64{"user_id": 2}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add collaborator: status %d body %s", rec.Code, rec.Body.String())
	}

	// Re-adding conflicts; self-adding conflicts
	rec = doJSON(t, router, http.MethodPost, taskPath+"/collaborators", alice,
		map[string]int64{"user_id": 2}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate collaborator: status %d, want 409", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, taskPath+"/collaborators", alice,
		map[string]int64{"user_id": 1}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("self collaborator: status %d, want 409", rec.Code)
	}

	// Bob can now update content
	var updated task.Task
	rec = doJSON(t, router, http.MethodPatch, taskPath, bob,
		map[string]bool{"is_done": true}, &updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("collaborator update: status %d body %s", rec.Code, rec.Body.String())
	}
	if !updated.IsDone {
		t.Error("is_done not applied")
	}

	// But bob cannot delete
	rec = doJSON(t, router, http.MethodDelete, taskPath, bob, nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("collaborator delete: status %d, want 403", rec.Code)
	}

	// The owner can
	rec = doJSON(t, router, http.MethodDelete, taskPath, alice, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("owner delete: status %d, want 204", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, taskPath, alice, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status %d, want 404", rec.Code)
	}
}

func TestTaskListPagination(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	alice, _ := signupAndLogin(t, router, "Alice")

	for i := 1; i <= 5; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/tasks", alice,
			map[string]string{"name": fmt.Sprintf("task %d", i)}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d: status %d", i, rec.Code)
		}
	}

	// Defaults: page 1 of 3, newest first
	var page task.Page
	rec := doJSON(t, router, http.MethodGet, "/api/v1/tasks", alice, nil, &page)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	if page.Total != 5 || len(page.Tasks) != 3 {
		t.Errorf("total %d len %d, want 5 and 3", page.Total, len(page.Tasks))
	}
	if page.Tasks[0].Name != "task 5" {
		t.Errorf("first task %q, want task 5", page.Tasks[0].Name)
	}

	var second task.Page
	doJSON(t, router, http.MethodGet, "/api/v1/tasks?page=2&per_page=3", alice, nil, &second)
	if len(second.Tasks) != 2 {
		t.Errorf("page 2 len %d, want 2", len(second.Tasks))
	}
}

func TestCalendarDisabled(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	access, _ := signupAndLogin(t, router, "Alice")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/calendar/events", access,
		map[string]string{"summary": "standup"}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("calendar create with integration off: status %d, want 404", rec.Code)
	}
}

func TestNewRequiresDeps(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	if _, err := New(Deps{}); err == nil {
		t.Error("New with no deps succeeded")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New without services succeeded")
	}
}
