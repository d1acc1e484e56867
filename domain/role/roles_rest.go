package role

import (
	"kycflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathRoles = "/v1/roles"
)

func RegisterRolesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathRoles, middleWares...)
	g.GET("", handleQueryRoles)
}

func handleQueryRoles(c *gin.Context) {
	roles, err := QueryRolesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, roles)
}
