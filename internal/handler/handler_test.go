package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/numberdesk/numberdesk/internal/config"
	"github.com/numberdesk/numberdesk/internal/events"
	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/server/middleware"
	"github.com/numberdesk/numberdesk/internal/service"
	"github.com/numberdesk/numberdesk/internal/session"
	"github.com/numberdesk/numberdesk/internal/store"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testPassword  = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store   *store.Store
	authSvc *service.AuthService
	router  chi.Router
}

// newTestEnv creates a fresh test environment with an in-memory store and a
// Chi router with the handlers mounted (no auth middleware).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("store.NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authSvc, err := service.NewAuthService(st, session.NewMemoryStore(), config.AuthConfig{
		JWTSecret:  testJWTSecret,
		SessionTTL: time.Hour,
		LegacyTTL:  time.Minute,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	if _, _, err := authSvc.SeedDefaultAdmin(context.Background(), "admin", testPassword); err != nil {
		t.Fatalf("SeedDefaultAdmin: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := NewDirectoryHandler(service.NewDirectory(st, events.Discard, logger), logger)
	auth := NewAuthHandler(authSvc, logger)
	health := NewHealthHandler(st, Endpoints(true), logger)

	r := chi.NewRouter()
	r.Get("/health", health.Health)
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", dir.RegisterUser)
		r.Get("/all", dir.ListUsers)
		r.Delete("/delete_all", dir.DeleteAllUsers)
		r.Delete("/delete/{id}", dir.DeleteUser)
	})
	r.Route("/numbers", func(r chi.Router) {
		r.Post("/detail_number", dir.SaveNumber)
		r.Get("/all", dir.ListNumbers)
		r.Delete("/delete_all", dir.DeleteAllNumbers)
		r.Delete("/delete/{id}", dir.DeleteNumber)
	})
	r.Post("/auth/login", auth.Login)
	r.Post("/auth/logout", auth.Logout)

	return &testEnv{store: st, authSvc: authSvc, router: r}
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) counts(t *testing.T) model.Counts {
	t.Helper()
	c, err := e.store.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	return c
}

func (e *testEnv) register(t *testing.T, body map[string]string) int64 {
	t.Helper()
	rr := e.do(t, "POST", "/users/register", toJSON(t, body))
	assertStatus(t, rr, http.StatusCreated)
	var resp model.RegisterResponse
	decodeJSON(t, rr, &resp)
	return resp.UserID
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	return resp.Error.Message
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestRegisterUser_Success(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/users/register", toJSON(t, map[string]string{
		"name":    "Ann",
		"company": "Acme",
		"email":   "ann@example.com",
	}))
	assertStatus(t, rr, http.StatusCreated)

	var resp model.RegisterResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "Registration successful!" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.UserID != 1 {
		t.Errorf("user_id = %d, want 1", resp.UserID)
	}
	if c := env.counts(t); c.Users != 1 {
		t.Errorf("users = %d, want 1", c.Users)
	}
}

func TestRegisterUser_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    map[string]string
		wantMsg string
	}{
		{"missing name", map[string]string{"email": "a@b.co"}, service.MsgNameRequired},
		{"blank name", map[string]string{"name": "   ", "email": "a@b.co"}, service.MsgNameRequired},
		{"no contact", map[string]string{"name": "Ann", "company": "Acme"}, service.MsgContactRequired},
		{"bad email", map[string]string{"name": "Ann", "email": "not-an-email"}, service.MsgInvalidEmail},
		{"bad phone", map[string]string{"name": "Ann", "phone": "12345"}, service.MsgInvalidPhone},
		{"letters in phone", map[string]string{"name": "Ann", "phone": "555-CALL-NOW"}, service.MsgInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/users/register", toJSON(t, tt.body))
			assertStatus(t, rr, http.StatusBadRequest)
			if msg := errorMessage(t, rr); msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}

	if c := env.counts(t); c.Users != 0 {
		t.Errorf("users = %d after rejected requests, want 0", c.Users)
	}
}

func TestRegisterUser_NoData(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{"", "not json", "[1,2]"} {
		rr := env.do(t, "POST", "/users/register", bytes.NewBufferString(body))
		assertStatus(t, rr, http.StatusBadRequest)
		if msg := errorMessage(t, rr); msg != "No data provided" {
			t.Errorf("body %q: message = %q", body, msg)
		}
	}
}

func TestListUsers_Empty(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/users/all", nil)
	assertStatus(t, rr, http.StatusOK)
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestListUsers_AfterDeletes(t *testing.T) {
	env := newTestEnv(t)

	const n, m = 5, 2
	var ids []int64
	for i := 0; i < n; i++ {
		ids = append(ids, env.register(t, map[string]string{
			"name":  fmt.Sprintf("User %d", i),
			"email": fmt.Sprintf("user%d@example.com", i),
		}))
	}
	for _, id := range ids[:m] {
		rr := env.do(t, "DELETE", fmt.Sprintf("/users/delete/%d", id), nil)
		assertStatus(t, rr, http.StatusOK)
	}

	rr := env.do(t, "GET", "/users/all", nil)
	assertStatus(t, rr, http.StatusOK)
	var users []model.User
	decodeJSON(t, rr, &users)
	if len(users) != n-m {
		t.Fatalf("got %d users, want %d", len(users), n-m)
	}
	for _, u := range users {
		if u.ID == ids[0] || u.ID == ids[1] {
			t.Errorf("deleted user %d still listed", u.ID)
		}
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, map[string]string{"name": "Ann", "phone": "5551234567"})

	for _, path := range []string{"/users/delete/999", "/users/delete/abc"} {
		rr := env.do(t, "DELETE", path, nil)
		assertStatus(t, rr, http.StatusNotFound)
		if msg := errorMessage(t, rr); msg != "User not found" {
			t.Errorf("%s: message = %q", path, msg)
		}
	}
	if c := env.counts(t); c.Users != 1 {
		t.Errorf("users = %d, want 1", c.Users)
	}
}

func TestDeleteAllUsers(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, map[string]string{"name": "Ann", "email": "ann@example.com"})
	env.register(t, map[string]string{"name": "Bob", "email": "bob@example.com"})

	rr := env.do(t, "DELETE", "/users/delete_all", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.DeleteAllResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "All users deleted successfully!" || resp.DeletedCount != 2 {
		t.Errorf("response = %+v", resp)
	}

	// Deleting an empty table still succeeds.
	rr = env.do(t, "DELETE", "/users/delete_all", nil)
	assertStatus(t, rr, http.StatusOK)
}

// ---------------------------------------------------------------------------
// Phone numbers
// ---------------------------------------------------------------------------

func TestNumbersLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/numbers/detail_number", toJSON(t, map[string]string{
		"details_number": "  555-1234  ",
	}))
	assertStatus(t, rr, http.StatusCreated)
	var saved model.NumberResponse
	decodeJSON(t, rr, &saved)
	if saved.Message != "Phone number saved successfully!" {
		t.Errorf("message = %q", saved.Message)
	}

	rr = env.do(t, "GET", "/numbers/all", nil)
	assertStatus(t, rr, http.StatusOK)
	var numbers []model.PhoneNumber
	decodeJSON(t, rr, &numbers)
	if len(numbers) != 1 || numbers[0].DetailsNumber != "555-1234" {
		t.Fatalf("numbers = %+v", numbers)
	}

	rr = env.do(t, "DELETE", fmt.Sprintf("/numbers/delete/%d", saved.NumberID), nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "DELETE", fmt.Sprintf("/numbers/delete/%d", saved.NumberID), nil)
	assertStatus(t, rr, http.StatusNotFound)
	if msg := errorMessage(t, rr); msg != "Phone number not found" {
		t.Errorf("message = %q", msg)
	}
}

func TestSaveNumber_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    io.Reader
		wantMsg string
	}{
		{"missing field", toJSON(t, map[string]string{}), service.MsgDetailsRequired},
		{"blank", toJSON(t, map[string]string{"details_number": "  "}), service.MsgDetailsRequired},
		{"too short", toJSON(t, map[string]string{"details_number": "123-45"}), service.MsgInvalidPhone},
		{"no body", nil, "No data provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/numbers/detail_number", tt.body)
			assertStatus(t, rr, http.StatusBadRequest)
			if msg := errorMessage(t, rr); msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
	if c := env.counts(t); c.Numbers != 0 {
		t.Errorf("numbers = %d, want 0", c.Numbers)
	}
}

func TestDeleteAllNumbers(t *testing.T) {
	env := newTestEnv(t)
	for _, n := range []string{"5551234", "5555678", "5559012"} {
		rr := env.do(t, "POST", "/numbers/detail_number", toJSON(t, map[string]string{"details_number": n}))
		assertStatus(t, rr, http.StatusCreated)
	}

	rr := env.do(t, "DELETE", "/numbers/delete_all", nil)
	assertStatus(t, rr, http.StatusOK)
	var resp model.DeleteAllResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "All phone numbers deleted successfully!" || resp.DeletedCount != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSaveNumber_LogsPrincipal(t *testing.T) {
	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("store.NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewDirectoryHandler(service.NewDirectory(st, events.Discard, logger), logger)

	req := httptest.NewRequest("POST", "/numbers/detail_number", toJSON(t, map[string]string{"details_number": "5551234"}))
	principal := &service.Principal{Kind: service.PrincipalSession, Username: "admin"}
	req = req.WithContext(context.WithValue(req.Context(), middleware.AuthPrincipalKey, principal))
	rr := httptest.NewRecorder()
	h.SaveNumber(rr, req)
	assertStatus(t, rr, http.StatusCreated)

	if !bytes.Contains(buf.Bytes(), []byte(`"by":"admin"`)) {
		t.Errorf("log output %q does not name the principal", buf.String())
	}

	// Anonymous saves (unprotected mode) are not attributed.
	buf.Reset()
	rr = httptest.NewRecorder()
	h.SaveNumber(rr, httptest.NewRequest("POST", "/numbers/detail_number", toJSON(t, map[string]string{"details_number": "5555678"})))
	assertStatus(t, rr, http.StatusCreated)
	if bytes.Contains(buf.Bytes(), []byte(`"by"`)) {
		t.Errorf("anonymous save logged a principal: %q", buf.String())
	}
}

// ---------------------------------------------------------------------------
// Store failures
// ---------------------------------------------------------------------------

func TestStoreFailureReturns500(t *testing.T) {
	env := newTestEnv(t)
	env.store.Close()

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"POST", "/users/register", map[string]string{"name": "Ann", "email": "ann@example.com"}},
		{"GET", "/users/all", nil},
		{"DELETE", "/users/delete/1", nil},
		{"DELETE", "/users/delete_all", nil},
		{"POST", "/numbers/detail_number", map[string]string{"details_number": "5551234"}},
		{"GET", "/numbers/all", nil},
		{"DELETE", "/numbers/delete/1", nil},
		{"DELETE", "/numbers/delete_all", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.body != nil {
				body = toJSON(t, tt.body)
			}
			rr := env.do(t, tt.method, tt.path, body)
			assertStatus(t, rr, http.StatusInternalServerError)
			if msg := errorMessage(t, rr); msg != "An unexpected error occurred" {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestLogin_ValidCredentials(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/auth/login", toJSON(t, map[string]string{
		"username": "admin",
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)

	var resp model.LoginResponse
	decodeJSON(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if _, err := env.authSvc.Authenticate(context.Background(), resp.Token); err != nil {
		t.Errorf("issued token does not authenticate: %v", err)
	}
}

func TestLogin_InvalidPassword(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/auth/login", toJSON(t, map[string]string{
		"username": "admin",
		"password": "wrong",
	}))
	assertStatus(t, rr, http.StatusUnauthorized)
	if msg := errorMessage(t, rr); msg != "Invalid credentials" {
		t.Errorf("message = %q", msg)
	}
}

func TestLogin_LegacyDisabled(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/auth/login", toJSON(t, map[string]string{
		"name": "", "email": "", "phone": "",
	}))
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestLogin_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/auth/login", bytes.NewBufferString("{invalid json"))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	tok, err := env.authSvc.Login(context.Background(), "admin", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assertStatus(t, rr, http.StatusOK)

	if _, err := env.authSvc.Authenticate(context.Background(), tok.Value); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("Authenticate after logout = %v, want ErrInvalidCredentials", err)
	}

	// Logging out without a token is harmless.
	rr = env.do(t, "POST", "/auth/logout", nil)
	assertStatus(t, rr, http.StatusOK)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealth_Counts(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, map[string]string{"name": "Ann", "email": "ann@example.com"})

	rr := env.do(t, "GET", "/health", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.HealthResponse
	decodeJSON(t, rr, &resp)
	if resp.Status != "OK" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Database.Path != store.MemoryPath || resp.Database.Exists {
		t.Errorf("database = %+v, want in-memory and not on disk", resp.Database)
	}
	if resp.Counts.Users != 1 || resp.Counts.Numbers != 0 || resp.Counts.Admins != 1 {
		t.Errorf("counts = %+v", resp.Counts)
	}
	if len(resp.Endpoints) != len(Endpoints(true)) {
		t.Errorf("endpoints = %d, want %d", len(resp.Endpoints), len(Endpoints(true)))
	}
}

type failingHealth struct{}

func (failingHealth) Path() string { return "/var/lib/numberdesk/users.db" }
func (failingHealth) FileInfo() (bool, int64, error) { return true, 4096, nil }
func (failingHealth) Counts(context.Context) (model.Counts, error) {
	return model.Counts{}, errors.New("database is locked")
}

func TestHealth_StoreFailure(t *testing.T) {
	h := NewHealthHandler(failingHealth{}, nil, slog.New(slog.DiscardHandler))

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest("GET", "/health", nil))
	assertStatus(t, rr, http.StatusInternalServerError)
	if msg := errorMessage(t, rr); msg != "An unexpected error occurred" {
		t.Errorf("message = %q", msg)
	}
}

func TestEndpoints_MarksProtectedSave(t *testing.T) {
	for _, protect := range []bool{true, false} {
		for _, ep := range Endpoints(protect) {
			want := protect && ep.Path == "/numbers/detail_number"
			if ep.Protected != want {
				t.Errorf("protect=%v: %s %s protected = %v", protect, ep.Method, ep.Path, ep.Protected)
			}
		}
	}
}
