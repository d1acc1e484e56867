package sessions_test

import (
	"kycflow/bizerror"
	"kycflow/session"
	"kycflow/sessions"
	"kycflow/testinfra"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func sessionRouter(s *session.Session) *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	inject := func(c *gin.Context) {
		session.InjectSessionIntoGinContext(c, s)
	}
	sessions.RegisterSessionHandler(router, inject)
	sessions.RegisterSessionsHandler(router, inject)
	return router
}

func TestDetailSession(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return the current session", func(t *testing.T) {
		router := sessionRouter(testinfra.BuildSession(10, testinfra.IDRef(5), "Maker", "Checker"))
		status, body, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/v1/session", nil), router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"token":"test-token","identity":{"id":"10","name":"user10","nickname":""},
			"perms":["Maker","Checker"],"branchId":"5"}`))
	})

	t.Run("should refuse anonymous requests", func(t *testing.T) {
		router := sessionRouter(nil)
		status, body, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/v1/session", nil), router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})
}

func TestCookieLoginAndLogout(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should issue a cookie token bound to the identity", func(t *testing.T) {
		s := testinfra.BuildSession(10, nil, "Teller")
		router := sessionRouter(s)

		status, body, header := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodPost, "/v1/sessions", nil), router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(ContainSubstring(`"identity":{"id":"10","name":"user10","nickname":""}`))

		cookie := header.Get("Set-Cookie")
		Expect(cookie).To(HavePrefix(session.KeySecToken + "="))
		Expect(cookie).To(ContainSubstring("HttpOnly"))
		token := strings.TrimPrefix(strings.SplitN(cookie, ";", 2)[0], session.KeySecToken+"=")
		Expect(token).ToNot(Equal("test-token"))

		value, found := session.TokenCache.Get(token)
		Expect(found).To(BeTrue())
		Expect(value).To(Equal(s.Identity))

		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
		status, _, header = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(header.Get("Set-Cookie")).To(HavePrefix(session.KeySecToken + "=;"))

		_, found = session.TokenCache.Get(token)
		Expect(found).To(BeFalse())
	})

	t.Run("anonymous login is refused and logout without cookie succeeds", func(t *testing.T) {
		router := sessionRouter(nil)
		status, _, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodPost, "/v1/sessions", nil), router)
		Expect(status).To(Equal(http.StatusUnauthorized))

		status, _, _ = testinfra.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil), router)
		Expect(status).To(Equal(http.StatusNoContent))
	})
}
