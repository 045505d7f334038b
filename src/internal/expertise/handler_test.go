package expertise

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mentoring-svc/src/internal/activity"
	"mentoring-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenIsUsername struct{}

func (tokenIsUsername) Resolve(_ context.Context, token string) (string, error) {
	return token, nil
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, activity.NewService(activity.NewNoopRepository()), time.Second)
	mw := middleware.NewAuthMiddleware(tokenIsUsername{}, nil, "session-id", time.Second)

	r := gin.New()
	r.GET("/expertise", mw.RequireSession(), h.Get)
	r.POST("/expertise", mw.RequireSession(), h.Submit)
	return r
}

func submit(r *gin.Engine, user string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/expertise", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "session-id", Value: user})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SubmitReplaces(t *testing.T) {
	svc, _ := newTestService(t)
	r := newRouter(svc)

	w := submit(r, "alice", url.Values{"subjects": {"a", "b"}, "year_group": {"Y10"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = submit(r, "alice", url.Values{"subjects": {"c"}, "year_group": {"Y11"}})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := svc.ForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(got))
	assert.Equal(t, "Y11", got.YearGroup)
}

func TestHandler_SubmitInvalidYearGroup(t *testing.T) {
	svc, _ := newTestService(t)
	r := newRouter(svc)

	w := submit(r, "alice", url.Values{"subjects": {"a"}, "year_group": {"Y7"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Get(t *testing.T) {
	svc, _ := newTestService(t)
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/expertise", nil)
	req.AddCookie(&http.Cookie{Name: "session-id", Value: "alice"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"year_groups":["Y9","Y10","Y11","Y12"]`)
	assert.Contains(t, w.Body.String(), `"name":"Biology"`)
}
