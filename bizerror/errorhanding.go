package bizerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"kycflow/common"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = errors.New(fmt.Sprintf("%s", ret))
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

type sentinelResponse struct {
	err     error
	status  int
	code    string
	message string
}

var sentinelResponses = []sentinelResponse{
	{ErrUnauthenticated, http.StatusUnauthorized, "common.unauthenticated", "unauthenticated"},
	{ErrForbidden, http.StatusForbidden, "security.forbidden", "access forbidden"},
	{ErrOutOfBranchScope, http.StatusForbidden, "kyc.out_of_branch_scope", ErrOutOfBranchScope.Error()},
	{ErrWorkflowNotFound, http.StatusNotFound, "kyc.workflow_not_found", ErrWorkflowNotFound.Error()},
	{ErrSessionNotFound, http.StatusNotFound, "kyc.session_not_found", ErrSessionNotFound.Error()},
	{ErrBranchNotFound, http.StatusNotFound, "branch.not_found", ErrBranchNotFound.Error()},
	{ErrRoleNotFound, http.StatusNotFound, "role.not_found", ErrRoleNotFound.Error()},
	{ErrWorkflowExisted, http.StatusConflict, "kyc.workflow_existed", ErrWorkflowExisted.Error()},
	{ErrConcurrentModification, http.StatusConflict, "kyc.concurrent_modification", ErrConcurrentModification.Error()},
	{gorm.ErrRecordNotFound, http.StatusNotFound, "common.record_not_found", "record not found"},
	{ErrNotFound, http.StatusNotFound, "common.record_not_found", "record not found"},
}

func HandleError(c *gin.Context, err error) {
	logrus.WithField("path", c.Request.URL.Path).Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	var bizErr BizError
	if errors.As(genericErr, &bizErr) {
		respond := bizErr.Respond()
		c.JSON(respond.Status, &common.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request:  io.EOF (no body).
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"})
		c.Abort()
		return
	}
	// bad request: json syntax Error
	var syntaxErr *json.SyntaxError
	if errors.As(genericErr, &syntaxErr) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	var validationErr validator.ValidationErrors
	if errors.As(genericErr, &validationErr) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	for _, r := range sentinelResponses {
		if errors.Is(genericErr, r.err) {
			c.JSON(r.status, &common.ErrorBody{Code: r.code, Message: r.message})
			c.Abort()
			return
		}
	}

	c.JSON(http.StatusInternalServerError, &common.ErrorBody{Code: common.CommonInternalServerError, Message: err.Error()})
	c.Abort()
}
