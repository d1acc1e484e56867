package search

import (
	"kycflow/bizerror"
	"kycflow/domain/approval"
	"kycflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathIndexSearch = "/v1/kyc-index-search"
)

func RegisterSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexSearch, middleWares...)
	g.GET("", handleSearchIndexedWorkflows)
}

func handleSearchIndexedWorkflows(c *gin.Context) {
	query := approval.SearchQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := SearchIndexedWorkflowsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
