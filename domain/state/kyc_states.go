package state

const (
	StatusInProgress           = "InProgress"
	StatusInReview             = "InReview"
	StatusResubmissionRequired = "ResubmissionRequired"
	StatusRejected             = "Rejected"
	StatusApproved             = "Approved"
)

const (
	ActionSubmit         = "submit"
	ActionApprove        = "approve"
	ActionReject         = "reject"
	ActionResubmit       = "resubmit"
	ActionPullBack       = "pull-back"
	ActionBranchTransfer = "branch-transfer"
)

var (
	InProgressState           = State{Name: StatusInProgress, Category: InBacklog}
	InReviewState             = State{Name: StatusInReview, Category: InProcess}
	ResubmissionRequiredState = State{Name: StatusResubmissionRequired, Category: InProcess}
	RejectedState             = State{Name: StatusRejected, Category: Done}
	ApprovedState             = State{Name: StatusApproved, Category: Done}
)

// KycStateMachine is the review lifecycle of an onboarding application.
// Rejected is terminal until the assignee resubmits, Approved is final.
var KycStateMachine = NewStateMachine(
	[]State{InProgressState, InReviewState, ResubmissionRequiredState, RejectedState, ApprovedState},
	[]Transition{
		{Name: ActionSubmit, From: InProgressState, To: InReviewState},
		{Name: ActionApprove, From: InReviewState, To: InReviewState},
		{Name: ActionApprove, From: InReviewState, To: ApprovedState},
		{Name: ActionReject, From: InReviewState, To: RejectedState},
		{Name: ActionReject, From: InReviewState, To: ResubmissionRequiredState},
		{Name: ActionPullBack, From: InReviewState, To: ResubmissionRequiredState},
		{Name: ActionResubmit, From: RejectedState, To: InReviewState},
		{Name: ActionResubmit, From: ResubmissionRequiredState, To: InReviewState},
		{Name: ActionBranchTransfer, From: InReviewState, To: InReviewState},
		{Name: ActionBranchTransfer, From: ResubmissionRequiredState, To: ResubmissionRequiredState},
	})
