package credential

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newTestService(t), time.Second)

	r := gin.New()
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateUser(t *testing.T) {
	r := newAdminRouter(t)

	w := postJSON(r, `{"username":"alice","password":"pw","lastname":"Liddell","firstname":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Liddell, Alice", body.Data.DisplayName)
	assert.NotContains(t, w.Body.String(), "pw")

	w = postJSON(r, `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(r, `{"username":"","password":"other"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	list := httptest.NewRecorder()
	r.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"username":"alice"`)
}
