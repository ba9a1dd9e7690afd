package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(testKey, "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestNewSessionManagerRejectsEmptyKey(t *testing.T) {
	if _, err := NewSessionManager("", "s", "", false, zap.NewNop()); err == nil {
		t.Error("empty session key should be rejected")
	}
}

func TestSignInRoundTrip(t *testing.T) {
	sm := newTestManager(t)

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	u := &SessionUser{ID: "abc", Name: "Admin A", Email: "a@example.org", Role: "admin"}
	if err := sm.SignIn(rec, req, u); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	// Replay the cookie through the middleware.
	var got *SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))

	req2 := httptest.NewRequest(http.MethodGet, "/api/board/posts", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil {
		t.Fatal("no user loaded from session")
	}
	if got.ID != "abc" || got.Role != "admin" {
		t.Errorf("loaded user = %+v", got)
	}
}

func TestLoadSessionUserWithoutCookie(t *testing.T) {
	sm := newTestManager(t)

	var found bool
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = CurrentUser(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if found {
		t.Error("anonymous request should carry no user")
	}
}

func TestRequireSignedIn(t *testing.T) {
	sm := newTestManager(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	sm.RequireSignedIn(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &SessionUser{ID: "x", Role: "member"})
	sm.RequireSignedIn(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed in = %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestManager(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	adminOnly := sm.RequireRole("admin")(ok)

	tests := []struct {
		name string
		user *SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"member", &SessionUser{ID: "m", Role: "member"}, http.StatusForbidden},
		{"admin", &SessionUser{ID: "a", Role: "admin"}, http.StatusOK},
		{"admin case insensitive", &SessionUser{ID: "a", Role: "Admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			adminOnly.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSignOutClearsSession(t *testing.T) {
	sm := newTestManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	_ = sm.SignIn(rec, req, &SessionUser{ID: "abc", Role: "member"})

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	if err := sm.SignOut(rec2, req2); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	cleared := rec2.Result().Cookies()
	if len(cleared) == 0 {
		t.Fatal("SignOut set no deletion cookie")
	}
	if cleared[0].MaxAge >= 0 {
		t.Errorf("deletion cookie MaxAge = %d, want negative", cleared[0].MaxAge)
	}
}
