package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"mentoring-svc/src/clients"
	"mentoring-svc/src/internal/credential"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCredentials struct {
	credential.Service
	passwords map[string]string
	upserted  []credential.ExternalIdentity
}

func (s *stubCredentials) Verify(_ context.Context, username, password string) error {
	if pw, ok := s.passwords[username]; ok && pw == password {
		return nil
	}
	return models.ErrAuthentication
}

func (s *stubCredentials) UpsertFromExternalIdentity(_ context.Context, id credential.ExternalIdentity) error {
	s.upserted = append(s.upserted, id)
	return nil
}

func (s *stubCredentials) List(context.Context) ([]*credential.Profile, error) {
	return []*credential.Profile{{Username: "alice"}, {Username: "bob"}}, nil
}

type stubSessions struct {
	mu      sync.Mutex
	issued  map[string]string // token -> username
	revoked []string
	next    int
}

func newStubSessions() *stubSessions {
	return &stubSessions{issued: map[string]string{}}
}

func (s *stubSessions) Issue(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	token := fmt.Sprintf("tok-%d", s.next)
	s.issued[token] = username
	return token, nil
}

func (s *stubSessions) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.issued[token]; ok {
		return u, nil
	}
	return "", models.ErrAuthentication
}

func (s *stubSessions) Revoke(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = append(s.revoked, username)
	return nil
}

func (s *stubSessions) Lifetime() time.Duration { return 24 * time.Hour }

type stubIdentity struct {
	identity *clients.Identity
	err      error
}

func (s stubIdentity) Authenticate(context.Context, string, string) (*clients.Identity, error) {
	return s.identity, s.err
}

type recorder struct {
	entries []*models.ActivityEntry
}

func (r *recorder) Record(_ context.Context, e *models.ActivityEntry) { r.entries = append(r.entries, e) }

func (r *recorder) Recent(context.Context, string, int) ([]*models.ActivityEntry, error) {
	return r.entries, nil
}

type admins []string

func (a admins) IsAdmin(u string) bool {
	for _, x := range a {
		if x == u {
			return true
		}
	}
	return false
}

type fixture struct {
	router   *gin.Engine
	creds    *stubCredentials
	sessions *stubSessions
	activity *recorder
}

func newFixture(identity IdentityProvider) *fixture {
	gin.SetMode(gin.TestMode)

	f := &fixture{
		creds:    &stubCredentials{passwords: map[string]string{"alice": "wonderland"}},
		sessions: newStubSessions(),
		activity: &recorder{},
	}
	cookie := middleware.CookieSettings{Name: "session-id", Lifetime: 24 * time.Hour}
	h := NewHandler(f.creds, f.sessions, identity, f.activity, cookie, time.Second)
	mw := middleware.NewAuthMiddleware(f.sessions, admins{"root"}, "session-id", time.Second)

	r := gin.New()
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.POST("/logout", mw.RequireSession(), h.Logout)
	r.GET("/impersonate", mw.RequireAdminOrLoopback(), h.ImpersonateForm)
	r.POST("/impersonate", mw.RequireAdminOrLoopback(), h.Impersonate)
	f.router = r
	return f
}

func (f *fixture) post(path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "session-id", Value: cookie})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session-id" {
			return c
		}
	}
	return nil
}

func TestLogin_LocalSuccessSetsCookie(t *testing.T) {
	f := newFixture(nil)

	w := f.post("/login", url.Values{"username": {"alice"}, "password": {"wonderland"}}, "")
	require.Equal(t, http.StatusOK, w.Code)

	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Equal(t, "alice", f.sessions.issued[c.Value])
	assert.True(t, c.HttpOnly)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, models.ActionLogin, f.activity.entries[0].Action)
	assert.Equal(t, "alice", f.activity.entries[0].Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(nil)

	w := f.post("/login", url.Values{"mode": {ModeLogin}, "username": {"alice"}, "password": {"nope"}}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"login":"/login"`)
	assert.Nil(t, sessionCookie(w))
	assert.Empty(t, f.activity.entries)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(nil)

	w := f.post("/login", url.Values{"username": {"alice"}}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLogin_External(t *testing.T) {
	f := newFixture(stubIdentity{identity: &clients.Identity{LastName: "Liddell", FirstName: "Alice"}})

	w := f.post("/login", url.Values{"mode": {ModeExternal}, "username": {"s123"}, "password": {"pw"}}, "")
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, f.creds.upserted, 1)
	assert.Equal(t, "s123", f.creds.upserted[0].Username)
	assert.Equal(t, "Liddell", f.creds.upserted[0].LastName)
	assert.Equal(t, "pw", f.creds.upserted[0].Password)

	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Equal(t, "s123", f.sessions.issued[c.Value])
	assert.Equal(t, models.ActionLoginExternal, f.activity.entries[0].Action)
}

func TestLogin_ExternalRejected(t *testing.T) {
	f := newFixture(stubIdentity{err: models.ErrAuthentication})

	w := f.post("/login", url.Values{"mode": {ModeExternal}, "username": {"s123"}, "password": {"pw"}}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.creds.upserted)
}

func TestLogin_ExternalProviderDown(t *testing.T) {
	f := newFixture(stubIdentity{err: fmt.Errorf("%w: connection refused", models.ErrIdentityProvider)})

	w := f.post("/login", url.Values{"mode": {ModeExternal}, "username": {"s123"}, "password": {"pw"}}, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestLogin_ExternalDisabled(t *testing.T) {
	f := newFixture(nil)

	w := f.post("/login", url.Values{"mode": {ModeExternal}, "username": {"s123"}, "password": {"pw"}}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLoginForm_ListsModes(t *testing.T) {
	f := newFixture(stubIdentity{})

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"modes":["login","external"]`)
}

func TestLogout(t *testing.T) {
	f := newFixture(nil)
	token, _ := f.sessions.Issue(context.Background(), "alice")

	w := f.post("/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"alice"}, f.sessions.revoked)
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestLogout_RequiresSession(t *testing.T) {
	f := newFixture(nil)

	w := f.post("/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.sessions.revoked)
}

func TestImpersonate(t *testing.T) {
	f := newFixture(nil)
	rootToken, _ := f.sessions.Issue(context.Background(), "root")

	w := f.post("/impersonate", url.Values{"username": {"bob"}}, rootToken)
	require.Equal(t, http.StatusOK, w.Code)

	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Equal(t, "bob", f.sessions.issued[c.Value])

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, models.ActionImpersonate, f.activity.entries[0].Action)
	assert.Equal(t, "root", f.activity.entries[0].Actor)
}

func TestImpersonate_ForbiddenForRegularUsers(t *testing.T) {
	f := newFixture(nil)
	token, _ := f.sessions.Issue(context.Background(), "alice")

	w := f.post("/impersonate", url.Values{"username": {"bob"}}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestImpersonateForm_Loopback(t *testing.T) {
	f := newFixture(nil)

	req := httptest.NewRequest(http.MethodGet, "/impersonate", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)
}
