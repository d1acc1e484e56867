package bizerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrWorkflowNotFound       = errors.New("Workflow not found")
	ErrSessionNotFound        = errors.New("KYC session not found")
	ErrBranchNotFound         = errors.New("branch not found")
	ErrRoleNotFound           = errors.New("role not found")
	ErrWorkflowExisted        = errors.New("a workflow already exists for this KYC session")
	ErrConcurrentModification = errors.New("the KYC was modified by someone else, reload and try again")
	ErrOutOfBranchScope       = errors.New("this KYC is not visible from your branch")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}

// ErrForbiddenAtLevel is returned when the actor is authenticated but does not hold the role
// the workflow is currently parked at.
type ErrForbiddenAtLevel struct {
	Message string
}

const (
	MessageNotAuthorizedAtLevel = "You are not authorized to action this KYC at its current level"
	MessageOnlyAssigneeResubmit = "Only the person currently assigned to this KYC can resubmit it"
)

func (e *ErrForbiddenAtLevel) Error() string {
	if e.Message == "" {
		return MessageNotAuthorizedAtLevel
	}
	return e.Message
}
func (e *ErrForbiddenAtLevel) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusForbidden, Code: "kyc.forbidden_at_level", Message: e.Error()}
}

type ErrInvalidStateTransition struct {
	Action string
	Status string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("cannot %s a KYC in status %s", e.Action, e.Status)
}
func (e *ErrInvalidStateTransition) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "kyc.invalid_state_transition", Message: e.Error(),
		Data: map[string]string{"action": e.Action, "status": e.Status}}
}

// ErrChainMisconfigured reports an approval chain that can not be resolved from the role table,
// it needs administrative correction and must never be retried automatically.
type ErrChainMisconfigured struct {
	Reason string
}

func (e *ErrChainMisconfigured) Error() string {
	return "approval chain is misconfigured: " + e.Reason
}
func (e *ErrChainMisconfigured) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusInternalServerError, Code: "kyc.chain_misconfigured", Message: e.Error()}
}
