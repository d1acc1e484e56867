package indices

import (
	"kycflow/bizerror"
	"kycflow/session"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	PathIndexRequests = "/v1/index-requests"

	indexRequestLimiter = rate.NewLimiter(rate.Every(time.Minute), 1)
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRequests, middleWares...)
	g.POST("", handleIndexRequest)
}

func handleIndexRequest(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if !s.Authenticated() {
		panic(bizerror.ErrUnauthenticated)
	}
	if !s.Perms.HasGlobalOverride() {
		panic(bizerror.ErrForbidden)
	}
	// forbidden requests do not consume the budget
	if !indexRequestLimiter.Allow() {
		c.JSON(http.StatusOK, gin.H{"result": "request rate limited"})
		return
	}
	started, err := ScheduleNewSyncRunFunc(s)
	if err != nil {
		panic(err)
	}
	if !started {
		c.JSON(http.StatusOK, gin.H{"result": "already running"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": "started"})
}
