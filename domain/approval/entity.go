package approval

import (
	"kycflow/domain/chain"
	"time"

	"github.com/fundwit/go-commons/types"
)

const SourceTypeKycWorkflow = "KYC_WORKFLOW"

// KycWorkflow tracks one submitted onboarding application through the approval chain.
// CurrentRoleID and CurrentOrderLevel are nil only once Approved, PendingLevel is 0 only once Approved.
type KycWorkflow struct {
	ID        types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	SessionID types.ID `json:"sessionId" gorm:"unique_index:uni_workflow_session"`
	Status    string   `json:"status" gorm:"index:idx_workflow_status"`

	SubmittedRoleID     types.ID `json:"submittedRoleId"`
	SubmittedOrderLevel int      `json:"submittedOrderLevel"`

	CurrentRoleID     *types.ID `json:"currentRoleId" gorm:"index:idx_workflow_current_role"`
	CurrentOrderLevel *int      `json:"currentOrderLevel"`
	PendingLevel      int       `json:"pendingLevel"`
	FullChain         string    `json:"fullChain"`

	BranchID    *types.ID `json:"branchId" gorm:"index:idx_workflow_branch"`
	LastRemarks string    `json:"lastRemarks" sql:"type:TEXT"`

	CreatorID  types.ID  `json:"creatorId"`
	Version    int       `json:"version"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

func (w *KycWorkflow) TableName() string {
	return "kyc_workflows"
}

type WorkflowCreation struct {
	SessionID types.ID `json:"sessionId" binding:"required"`

	// SubmittedRoleID is the role the application returns to when sent back, the first chain role if omitted
	SubmittedRoleID     *types.ID `json:"submittedRoleId"`
	SubmittedOrderLevel *int      `json:"submittedOrderLevel" binding:"omitempty,gte=0"`
	BranchID            *types.ID `json:"branchId"`
	Remarks             string    `json:"remarks" binding:"lte=2000"`

	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

type WorkflowAction struct {
	Remarks          string `json:"remarks" binding:"lte=2000"`
	ReturnToPrevious bool   `json:"returnToPrevious"`
	// Version is the record version the caller decided on, a newer record fails with a conflict
	Version *int `json:"version" binding:"required,gte=1"`

	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

type BranchTransfer struct {
	BranchID types.ID `json:"branchId" binding:"required"`
	Remarks  string   `json:"remarks" binding:"lte=2000"`
	Version  *int     `json:"version" binding:"required,gte=1"`

	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

type ActionResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Workflow *KycWorkflow `json:"workflow,omitempty"`
}

type WorkflowQuery struct {
	Status   string    `json:"status" form:"status" binding:"omitempty,oneof=InReview ResubmissionRequired Rejected Approved"`
	BranchID *types.ID `json:"branchId" form:"branchId"`
	Page     int       `json:"page" form:"page" binding:"omitempty,gte=1"`
	Size     int       `json:"size" form:"size" binding:"omitempty,gte=1,lte=200"`
}

type SearchQuery struct {
	Q        string    `json:"q" form:"q" binding:"required,lte=255"`
	BranchID *types.ID `json:"branchId" form:"branchId"`
}

type WorkflowSummary struct {
	KycWorkflow

	ApplicantName   string `json:"applicantName"`
	ApplicantEmail  string `json:"applicantEmail"`
	CurrentRoleName string `json:"currentRoleName"`
	BranchName      string `json:"branchName"`
}

type WorkflowPage struct {
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Items []WorkflowSummary `json:"items"`
}

type WorkflowDetail struct {
	WorkflowSummary

	SubmittedRoleName string         `json:"submittedRoleName"`
	LiveChain         []chain.Member `json:"liveChain"`
	LiveFullChain     string         `json:"liveFullChain"`
	ChainAnomaly      string         `json:"chainAnomaly,omitempty"`

	Logs []ApprovalLogDetail `json:"logs"`
}

type AuditVerification struct {
	WorkflowID  types.ID `json:"workflowId"`
	Entries     int      `json:"entries"`
	Valid       bool     `json:"valid"`
	BrokenAtSeq int      `json:"brokenAtSeq,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// AuditTrail is the self-contained record of a review, kept after the workflow is finished
type AuditTrail struct {
	Workflow     WorkflowSummary   `json:"workflow"`
	Logs         []ApprovalLog     `json:"logs"`
	Verification AuditVerification `json:"verification"`
	ExportTime   time.Time         `json:"exportTime"`
}
