package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const namePattern = `<h1>Grades and Attendance: (?P<last>[^,<]+), (?P<first>[^ <]+)(?: (?P<middle>[^<]+))?</h1>`

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("account") != "s1" || r.PostForm.Get("pw") != "good" {
			_, _ = w.Write([]byte("<html>Invalid Username or Password!</html>"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "portal", Value: "ok", Path: "/"})
		_, _ = w.Write([]byte("<html>redirecting</html>"))
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("portal"); err != nil || c.Value != "ok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("<html><h1>Grades and Attendance: O&#39;Neil, Mary Ann</h1></html>"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, loginURL, portalURL string) *IdentityClient {
	t.Helper()
	c, err := NewIdentityClient(&config.IdentityProvider{
		Url:          loginURL,
		PortalUrl:    portalURL,
		NamePattern:  namePattern,
		UsernameForm: "account",
		PasswordForm: "pw",
	})
	require.NoError(t, err)
	return c
}

func TestIdentityClient_Authenticate(t *testing.T) {
	srv := newPortal(t)
	c := newClient(t, srv.URL+"/login", srv.URL+"/home")

	id, err := c.Authenticate(context.Background(), "s1", "good")
	require.NoError(t, err)
	assert.Equal(t, "O'Neil", id.LastName)
	assert.Equal(t, "Mary", id.FirstName)
	assert.Equal(t, "Ann", id.MiddleName)
}

func TestIdentityClient_WrongPassword(t *testing.T) {
	srv := newPortal(t)
	c := newClient(t, srv.URL+"/login", srv.URL+"/home")

	_, err := c.Authenticate(context.Background(), "s1", "bad")
	assert.ErrorIs(t, err, models.ErrAuthentication)
}

func TestIdentityClient_ProviderDown(t *testing.T) {
	srv := newPortal(t)
	c := newClient(t, srv.URL+"/broken", "")

	_, err := c.Authenticate(context.Background(), "s1", "good")
	assert.True(t, errors.Is(err, models.ErrIdentityProvider))
	assert.False(t, errors.Is(err, models.ErrAuthentication))
}

func TestNewIdentityClient_RequiresNameGroups(t *testing.T) {
	_, err := NewIdentityClient(&config.IdentityProvider{NamePattern: `<h1>(.*)</h1>`})
	assert.Error(t, err)

	_, err = NewIdentityClient(&config.IdentityProvider{NamePattern: `(`})
	assert.Error(t, err)
}
