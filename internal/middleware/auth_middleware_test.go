package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"

	"github.com/labstack/echo/v4"
)

type fakeSessions struct {
	sessions map[string]domain.SessionData
	failSave bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]domain.SessionData)}
}

func (s *fakeSessions) Get(_ context.Context, sessionID string) (domain.SessionData, error) {
	data, ok := s.sessions[sessionID]
	if !ok {
		return domain.SessionData{}, errors.New("session not found")
	}
	return data, nil
}

func (s *fakeSessions) Refresh(_ context.Context, sessionID string, user domain.SessionUser) error {
	if s.failSave {
		return errors.New("redis down")
	}
	data := s.sessions[sessionID]
	data.User = user
	s.sessions[sessionID] = data
	return nil
}

func (s *fakeSessions) Destroy(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

type fakeUsers struct {
	users map[uint]domain.User
}

func (u *fakeUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := u.users[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}
	return user, nil
}

const cookieName = "session_id"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, cookie string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	nextCalled := false
	handler := mw(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	return rec, nextCalled
}

func TestRequireAuthenticatedNoCookieRedirects(t *testing.T) {
	mw := RequireAuthenticated(cookieName, newFakeSessions(), &fakeUsers{users: map[uint]domain.User{}})

	rec, nextCalled := doRequest(t, mw, "")
	if nextCalled {
		t.Error("handler ran without a session")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireAuthenticatedDestroyedSessionRedirects(t *testing.T) {
	sessions := newFakeSessions()
	users := &fakeUsers{users: map[uint]domain.User{1: {ID: 1, Email: "jane@example.com"}}}
	sessions.sessions["sid"] = domain.SessionData{User: domain.SessionUser{ID: 1}}

	mw := RequireAuthenticated(cookieName, sessions, users)

	// logged in
	if _, nextCalled := doRequest(t, mw, "sid"); !nextCalled {
		t.Fatal("valid session did not pass the gate")
	}

	// logout destroys the session; the next request must bounce
	if err := sessions.Destroy(context.Background(), "sid"); err != nil {
		t.Fatal(err)
	}

	rec, nextCalled := doRequest(t, mw, "sid")
	if nextCalled {
		t.Error("destroyed session still served cached mirror data")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d", rec.Code)
	}
}

func TestRequireAuthenticatedDeletedAccountDestroysSession(t *testing.T) {
	sessions := newFakeSessions()
	users := &fakeUsers{users: map[uint]domain.User{}}
	sessions.sessions["sid"] = domain.SessionData{User: domain.SessionUser{ID: 1}}

	mw := RequireAuthenticated(cookieName, sessions, users)

	rec, nextCalled := doRequest(t, mw, "sid")
	if nextCalled {
		t.Error("deleted account passed the gate")
	}
	if rec.Code != http.StatusFound {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
	if _, ok := sessions.sessions["sid"]; ok {
		t.Error("session for deleted account was not destroyed")
	}
}

func TestRequireAuthenticatedRefreshesStaleMirror(t *testing.T) {
	sessions := newFakeSessions()
	users := &fakeUsers{users: map[uint]domain.User{1: {ID: 1, Email: "jane@example.com", Spins: 7}}}
	// mirror is stale: the store says 7 spins
	sessions.sessions["sid"] = domain.SessionData{User: domain.SessionUser{ID: 1, Spins: 10}}

	mw := RequireAuthenticated(cookieName, sessions, users)

	if _, nextCalled := doRequest(t, mw, "sid"); !nextCalled {
		t.Fatal("valid session did not pass the gate")
	}

	if got := sessions.sessions["sid"].User.Spins; got != 7 {
		t.Errorf("mirror spins = %d, want 7 after refresh", got)
	}
}

func TestRequireAuthenticatedSaveFailureIsAnError(t *testing.T) {
	sessions := newFakeSessions()
	sessions.failSave = true
	users := &fakeUsers{users: map[uint]domain.User{1: {ID: 1, Spins: 7}}}
	sessions.sessions["sid"] = domain.SessionData{User: domain.SessionUser{ID: 1, Spins: 10}}

	mw := RequireAuthenticated(cookieName, sessions, users)

	rec, nextCalled := doRequest(t, mw, "sid")
	if nextCalled {
		t.Error("request proceeded as authenticated after a failed session save")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRequireAnonymous(t *testing.T) {
	sessions := newFakeSessions()
	sessions.sessions["sid"] = domain.SessionData{User: domain.SessionUser{ID: 1}}

	mw := RequireAnonymous(cookieName, sessions)

	// logged-in caller bounces to the landing page
	rec, nextCalled := doRequest(t, mw, "sid")
	if nextCalled {
		t.Error("authenticated caller reached an anonymous-only route")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d", rec.Code)
	}

	// anonymous caller passes
	if _, nextCalled := doRequest(t, mw, ""); !nextCalled {
		t.Error("anonymous caller was blocked")
	}
}
