package archive

import (
	"errors"
	"kycflow/bizerror"
	"kycflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

var PathAuditArchives = "/v1/kyc-audit-archives"

func RegisterArchiveRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAuditArchives, middleWares...)
	g.GET("/:id", handleDetailArchive)
}

func handleDetailArchive(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid workflow id '" + c.Param("id") + "'")})
	}
	data, err := DetailArchiveFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.Data(http.StatusOK, "application/json", data)
}
