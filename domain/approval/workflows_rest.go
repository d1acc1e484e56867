package approval

import (
	"errors"
	"kycflow/bizerror"
	"kycflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathWorkflows = "/v1/kyc-workflows"
)

func RegisterWorkflowsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkflows, middleWares...)
	g.POST("", handleCreateWorkflow)
	g.GET("", handleListWorkflows)
	g.GET("/pending", handleListPendingWorkflows)
	g.GET("/search", handleSearchWorkflows)
	g.GET("/:id", handleDetailWorkflow)
	g.GET("/:id/audit-verification", handleVerifyAuditTrail)

	g.POST("/:id/approve", handleApproveWorkflow)
	g.POST("/:id/reject", handleRejectWorkflow)
	g.POST("/:id/resubmit", handleResubmitWorkflow)
	g.POST("/:id/pull-back", handlePullBackWorkflow)
	g.POST("/:id/pull-to-my-branch", handlePullWorkflowToMyBranch)
	g.POST("/:id/transfer", handleTransferWorkflowBranch)
}

func handleCreateWorkflow(c *gin.Context) {
	creation := WorkflowCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	creation.ClientIP, creation.UserAgent = c.ClientIP(), c.Request.UserAgent()

	result, err := CreateWorkflowFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, result)
}

func handleListWorkflows(c *gin.Context) {
	query := WorkflowQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	page, err := ListWorkflowsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, page)
}

func handleListPendingWorkflows(c *gin.Context) {
	records, err := ListPendingWorkflowsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleSearchWorkflows(c *gin.Context) {
	query := SearchQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := SearchWorkflowsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDetailWorkflow(c *gin.Context) {
	detail, err := DetailWorkflowFunc(parseWorkflowID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleVerifyAuditTrail(c *gin.Context) {
	result, err := VerifyAuditTrailFunc(parseWorkflowID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

type actionFunc func(id types.ID, a *WorkflowAction, s *session.Session) (*ActionResult, error)

func handleApproveWorkflow(c *gin.Context) {
	respondAction(c, ApproveWorkflowFunc)
}

func handleRejectWorkflow(c *gin.Context) {
	respondAction(c, RejectWorkflowFunc)
}

func handleResubmitWorkflow(c *gin.Context) {
	respondAction(c, ResubmitWorkflowFunc)
}

func handlePullBackWorkflow(c *gin.Context) {
	respondAction(c, PullBackWorkflowFunc)
}

func handlePullWorkflowToMyBranch(c *gin.Context) {
	respondAction(c, PullWorkflowToMyBranchFunc)
}

func respondAction(c *gin.Context, op actionFunc) {
	id := parseWorkflowID(c)
	action := WorkflowAction{}
	if err := c.ShouldBindBodyWith(&action, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	action.ClientIP, action.UserAgent = c.ClientIP(), c.Request.UserAgent()

	result, err := op(id, &action, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleTransferWorkflowBranch(c *gin.Context) {
	id := parseWorkflowID(c)
	transfer := BranchTransfer{}
	if err := c.ShouldBindBodyWith(&transfer, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	transfer.ClientIP, transfer.UserAgent = c.ClientIP(), c.Request.UserAgent()

	result, err := TransferWorkflowBranchFunc(id, &transfer, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func parseWorkflowID(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid workflow id '" + c.Param("id") + "'")})
	}
	return id
}
