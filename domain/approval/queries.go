package approval

import (
	"context"
	"errors"
	"kycflow/account"
	"kycflow/bizerror"
	"kycflow/domain/branch"
	"kycflow/domain/chain"
	"kycflow/domain/kyc"
	"kycflow/domain/role"
	"kycflow/domain/state"
	"kycflow/persistence"
	"kycflow/session"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const (
	defaultPageSize  = 20
	searchResultSize = 100
)

var (
	ListPendingWorkflowsFunc = ListPendingWorkflows
	ListWorkflowsFunc        = ListWorkflows
	DetailWorkflowFunc       = DetailWorkflow
	SearchWorkflowsFunc      = SearchWorkflows
	VerifyAuditTrailFunc     = VerifyAuditTrail

	LoadWorkflowsFunc  = LoadWorkflows
	LoadWorkflowFunc   = LoadWorkflow
	LoadAuditTrailFunc = LoadAuditTrail
)

// ListPendingWorkflows returns the open records parked at one of the actor's roles, oldest first.
// Global administrators see every open record.
func ListPendingWorkflows(s *session.Session) ([]WorkflowSummary, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Model(&KycWorkflow{}).Where("status IN (?)", []string{state.StatusInReview, state.StatusResubmissionRequired})
	if !s.Perms.HasGlobalOverride() {
		actor, err := resolveActorRoles(db, s)
		if err != nil {
			return nil, err
		}
		if actor.ids.Cardinality() == 0 {
			return []WorkflowSummary{}, nil
		}
		q = q.Where("current_role_id IN (?)", actor.ids.ToSlice())
	}
	q = applyBranchScope(q, s, nil)

	records := []KycWorkflow{}
	if err := q.Order("create_time ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return summarize(db, records)
}

// ListWorkflows pages through every record visible to the actor, newest first
func ListWorkflows(query *WorkflowQuery, s *session.Session) (*WorkflowPage, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	page, size := query.Page, query.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	q := applyBranchScope(db.Model(&KycWorkflow{}), s, query.BranchID)
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var total int
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	records := []KycWorkflow{}
	if err := q.Order("create_time DESC").Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&records).Error; err != nil {
		return nil, err
	}
	items, err := summarize(db, records)
	if err != nil {
		return nil, err
	}
	return &WorkflowPage{Total: total, Page: page, Size: size, Items: items}, nil
}

// DetailWorkflow resolves display names, the approval history and the chain as it stands now
func DetailWorkflow(id types.ID, s *session.Session) (*WorkflowDetail, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	w, err := findVisibleWorkflow(db, id, s)
	if err != nil {
		return nil, err
	}

	summaries, err := summarize(db, []KycWorkflow{*w})
	if err != nil {
		return nil, err
	}
	detail := WorkflowDetail{WorkflowSummary: summaries[0], LiveChain: []chain.Member{}}

	ch, err := chain.ResolveFunc(db, w.SubmittedOrderLevel)
	var misconfigured *bizerror.ErrChainMisconfigured
	if errors.As(err, &misconfigured) {
		detail.ChainAnomaly = misconfigured.Error()
	} else if err != nil {
		return nil, err
	} else {
		detail.LiveChain = ch.Members
		detail.LiveFullChain = ch.Describe()
	}

	logs, err := queryLogs(db, w.ID)
	if err != nil {
		return nil, err
	}
	roleIds := []types.ID{w.SubmittedRoleID}
	userIds := []types.ID{}
	for _, l := range logs {
		for _, id := range []*types.ID{l.ActionedByRoleID, l.ForwardedToRoleID} {
			if id != nil {
				roleIds = append(roleIds, *id)
			}
		}
		if l.UserID != nil {
			userIds = append(userIds, *l.UserID)
		}
	}
	roleNames, err := role.QueryRoleNames(db, roleIds)
	if err != nil {
		return nil, err
	}
	userNames, err := account.QueryAccountNames(db, userIds)
	if err != nil {
		return nil, err
	}

	detail.SubmittedRoleName = roleNames[w.SubmittedRoleID]
	detail.Logs = make([]ApprovalLogDetail, 0, len(logs))
	for _, l := range logs {
		detail.Logs = append(detail.Logs, ApprovalLogDetail{ApprovalLog: l,
			UserName:            nameOf(userNames, l.UserID),
			ActionedByRoleName:  nameOf(roleNames, l.ActionedByRoleID),
			ForwardedToRoleName: nameOf(roleNames, l.ForwardedToRoleID)})
	}
	return &detail, nil
}

// SearchWorkflows matches workflow id, session id, applicant name or applicant email
func SearchWorkflows(query *SearchQuery, s *session.Session) ([]WorkflowSummary, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	keyword := strings.TrimSpace(query.Q)
	if keyword == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("search keyword is required")}
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	sessionIds, err := kyc.MatchSessionIDs(db, keyword)
	if err != nil {
		return nil, err
	}

	q := db.Model(&KycWorkflow{})
	id, parseErr := types.ParseID(keyword)
	switch {
	case parseErr == nil && len(sessionIds) > 0:
		q = q.Where("(id = ? OR session_id IN (?))", id, sessionIds)
	case parseErr == nil:
		q = q.Where("id = ?", id)
	case len(sessionIds) > 0:
		q = q.Where("session_id IN (?)", sessionIds)
	default:
		return []WorkflowSummary{}, nil
	}
	q = applyBranchScope(q, s, query.BranchID)

	records := []KycWorkflow{}
	if err := q.Order("create_time DESC").Order("id DESC").Limit(searchResultSize).Find(&records).Error; err != nil {
		return nil, err
	}
	return summarize(db, records)
}

// VerifyAuditTrail recomputes the hash chain of the approval log of a workflow
func VerifyAuditTrail(id types.ID, s *session.Session) (*AuditVerification, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	w, err := findVisibleWorkflow(db, id, s)
	if err != nil {
		return nil, err
	}
	logs, err := queryLogs(db, w.ID)
	if err != nil {
		return nil, err
	}
	return verifyLogs(w.ID, logs), nil
}

// LoadWorkflows pages through every record in id order, branch scope does not apply to background jobs
func LoadWorkflows(page, size int) ([]WorkflowSummary, error) {
	if page <= 0 {
		page = 1
	}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	records := []KycWorkflow{}
	if err := db.Order("id ASC").Offset((page - 1) * size).Limit(size).Find(&records).Error; err != nil {
		return nil, err
	}
	return summarize(db, records)
}

func LoadWorkflow(ctx context.Context, id types.ID) (*WorkflowSummary, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	w, err := findWorkflow(db, id)
	if err != nil {
		return nil, err
	}
	summaries, err := summarize(db, []KycWorkflow{*w})
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// LoadAuditTrail collects the record with its verified approval log for archiving
func LoadAuditTrail(ctx context.Context, id types.ID) (*AuditTrail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	w, err := findWorkflow(db, id)
	if err != nil {
		return nil, err
	}
	summaries, err := summarize(db, []KycWorkflow{*w})
	if err != nil {
		return nil, err
	}
	logs, err := queryLogs(db, w.ID)
	if err != nil {
		return nil, err
	}
	return &AuditTrail{Workflow: summaries[0], Logs: logs, Verification: *verifyLogs(w.ID, logs), ExportTime: time.Now()}, nil
}

func findVisibleWorkflow(db *gorm.DB, id types.ID, s *session.Session) (*KycWorkflow, error) {
	w, err := findWorkflow(db, id)
	if err != nil {
		return nil, err
	}
	if !inBranchScope(s, w) {
		return nil, bizerror.ErrOutOfBranchScope
	}
	return w, nil
}

func summarize(db *gorm.DB, records []KycWorkflow) ([]WorkflowSummary, error) {
	sessionIds := make([]types.ID, 0, len(records))
	roleIds := []types.ID{}
	branchIds := []types.ID{}
	for _, w := range records {
		sessionIds = append(sessionIds, w.SessionID)
		if w.CurrentRoleID != nil {
			roleIds = append(roleIds, *w.CurrentRoleID)
		}
		if w.BranchID != nil {
			branchIds = append(branchIds, *w.BranchID)
		}
	}

	sessions, err := kyc.QuerySessions(db, sessionIds)
	if err != nil {
		return nil, err
	}
	roleNames, err := role.QueryRoleNames(db, roleIds)
	if err != nil {
		return nil, err
	}
	branchNames, err := branch.QueryBranchNames(db, branchIds)
	if err != nil {
		return nil, err
	}

	result := make([]WorkflowSummary, 0, len(records))
	for _, w := range records {
		applicant := sessions[w.SessionID]
		result = append(result, WorkflowSummary{KycWorkflow: w,
			ApplicantName: applicant.ApplicantName, ApplicantEmail: applicant.ApplicantEmail,
			CurrentRoleName: nameOf(roleNames, w.CurrentRoleID), BranchName: nameOf(branchNames, w.BranchID)})
	}
	return result, nil
}
