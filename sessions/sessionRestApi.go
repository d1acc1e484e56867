package sessions

import (
	"kycflow/bizerror"
	"kycflow/session"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	PathSession  = "/v1/session"
	PathSessions = "/v1/sessions"
)

// RegisterSessionHandler exposes the current session, the filter in front of it has reloaded roles and branch
func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathSession, middleWares...)
	g.GET("", DetailSession)
}

// RegisterSessionsHandler lets a browser trade a verified bearer token for a cookie session.
// Logout needs no authentication.
func RegisterSessionsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.POST(PathSessions, append(middleWares, CookieLoginHandler)...)
	r.DELETE(PathSessions, LogoutHandler)
}

func DetailSession(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if !s.Authenticated() {
		panic(bizerror.ErrUnauthenticated)
	}
	c.JSON(http.StatusOK, s)
}

func CookieLoginHandler(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if !s.Authenticated() {
		panic(bizerror.ErrUnauthenticated)
	}

	token := uuid.New().String()
	session.TokenCache.Set(token, s.Identity, cache.DefaultExpiration)
	s.Token = token

	c.SetCookie(session.KeySecToken, token, int(session.TokenExpiration/time.Second), "/", "", false, true)
	c.JSON(http.StatusCreated, s)
}

func LogoutHandler(c *gin.Context) {
	token, _ := c.Cookie(session.KeySecToken) // ErrNoCookie
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, true)
	c.AbortWithStatus(http.StatusNoContent)
}
