package branch

import (
	"kycflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathBranches = "/v1/branches"
)

func RegisterBranchesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathBranches, middleWares...)
	g.GET("", handleQueryBranches)
}

func handleQueryBranches(c *gin.Context) {
	branches, err := QueryBranchesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, branches)
}
