package bizerror_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"kycflow/bizerror"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func serve(err interface{}) (int, string) {
	router := gin.New()
	router.Use(bizerror.ErrorHandling())
	router.GET("/", func(c *gin.Context) {
		panic(err)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	body, _ := ioutil.ReadAll(w.Body)
	return w.Code, string(body)
}

func TestErrorHandling(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should respond biz errors with their own detail", func(t *testing.T) {
		status, body := serve(&bizerror.ErrForbiddenAtLevel{})
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"kyc.forbidden_at_level",
			"message":"You are not authorized to action this KYC at its current level","data":null}`))

		status, body = serve(fmt.Errorf("wrapped: %w", &bizerror.ErrInvalidStateTransition{Action: "resubmit", Status: "InReview"}))
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"kyc.invalid_state_transition","message":"cannot resubmit a KYC in status InReview",
			"data":{"action":"resubmit","status":"InReview"}}`))
	})

	t.Run("should respond sentinel errors", func(t *testing.T) {
		status, body := serve(bizerror.ErrUnauthenticated)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))

		status, body = serve(bizerror.ErrWorkflowNotFound)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"kyc.workflow_not_found","message":"Workflow not found","data":null}`))

		status, body = serve(bizerror.ErrConcurrentModification)
		Expect(status).To(Equal(http.StatusConflict))

		status, body = serve(gorm.ErrRecordNotFound)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"record not found","data":null}`))
	})

	t.Run("should respond bad request for malformed body", func(t *testing.T) {
		var v map[string]interface{}
		syntaxErr := json.Unmarshal([]byte("{x"), &v)
		status, body := serve(syntaxErr)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`"code":"bad_request.invalid_body_format"`))
	})

	t.Run("should respond internal server error for unknown errors", func(t *testing.T) {
		status, body := serve(errors.New("some error"))
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"some error","data":null}`))

		status, body = serve("a string panic")
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"a string panic","data":null}`))
	})
}
