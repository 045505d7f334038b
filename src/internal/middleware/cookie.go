package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieSettings describes the session cookie.
type CookieSettings struct {
	Name     string
	Secure   bool
	Lifetime time.Duration
}

func (s CookieSettings) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, token, int(s.Lifetime.Seconds()), "/", "", s.Secure, true)
}

func (s CookieSettings) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}
