package approval

import (
	"errors"
	"fmt"
	"kycflow/bizerror"
	"kycflow/domain/branch"
	"kycflow/domain/chain"
	"kycflow/domain/kyc"
	"kycflow/domain/role"
	"kycflow/domain/state"
	"kycflow/event"
	"kycflow/idgen"
	"kycflow/persistence"
	"kycflow/session"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	CreateWorkflowFunc         = CreateWorkflow
	ApproveWorkflowFunc        = ApproveWorkflow
	RejectWorkflowFunc         = RejectWorkflow
	ResubmitWorkflowFunc       = ResubmitWorkflow
	PullBackWorkflowFunc       = PullBackWorkflow
	TransferWorkflowBranchFunc = TransferWorkflowBranch
	PullWorkflowToMyBranchFunc = PullWorkflowToMyBranch

	workflowIdWorker = idgen.NewIdWorker()
)

// transition is what an operation decided to change on a workflow record
type transition struct {
	changes     map[string]interface{}
	forwardedTo *types.ID
	remarks     string
	message     string
}

type operation struct {
	action    string
	mode      gateMode
	version   *int
	clientIP  string
	userAgent string
	decide    func(tx *gorm.DB, w *KycWorkflow) (*transition, error)
}

// CreateWorkflow puts a finished application session into review, it is triggered by the submission flow
func CreateWorkflow(c *WorkflowCreation, s *session.Session) (*ActionResult, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}

	now := time.Now()
	var w *KycWorkflow
	var ev *event.EventRecord
	var message string
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := kyc.FindSession(tx, c.SessionID); err != nil {
			return err
		}
		var count int
		if err := tx.Model(&KycWorkflow{}).Where("session_id = ?", c.SessionID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrWorkflowExisted
		}

		var submittedRole *role.Role
		if c.SubmittedRoleID != nil {
			r, err := role.FindRole(tx, *c.SubmittedRoleID)
			if err != nil {
				return err
			}
			submittedRole = r
		}
		submittedLevel := 0
		if c.SubmittedOrderLevel != nil {
			submittedLevel = *c.SubmittedOrderLevel
		} else if submittedRole != nil && submittedRole.OrderLevel != nil {
			submittedLevel = *submittedRole.OrderLevel
		}

		ch, err := chain.ResolveFunc(tx, submittedLevel)
		if err != nil {
			return err
		}
		first, err := ch.First()
		if err != nil {
			logrus.WithFields(logrus.Fields{"sessionId": c.SessionID, "submittedOrderLevel": submittedLevel}).Error(err)
			return err
		}
		submittedRoleID := first.RoleID
		if submittedRole != nil {
			submittedRoleID = submittedRole.ID
		}

		var branchID *types.ID
		if c.BranchID != nil {
			b, err := branch.FindBranch(tx, *c.BranchID)
			if err != nil {
				return err
			}
			branchID = &b.ID
		} else if s.HasBranch() {
			id := *s.BranchID
			branchID = &id
		}

		currentRoleID, currentLevel := first.RoleID, first.OrderLevel
		w = &KycWorkflow{
			ID:                  idgen.NextID(workflowIdWorker),
			SessionID:           c.SessionID,
			Status:              state.StatusInReview,
			SubmittedRoleID:     submittedRoleID,
			SubmittedOrderLevel: submittedLevel,
			CurrentRoleID:       &currentRoleID,
			CurrentOrderLevel:   &currentLevel,
			PendingLevel:        ch.Len(),
			FullChain:           ch.Describe(),
			BranchID:            branchID,
			LastRemarks:         c.Remarks,
			CreatorID:           s.Identity.ID,
			Version:             1,
			CreateTime:          now,
			UpdateTime:          now,
		}
		if err := tx.Create(w).Error; err != nil {
			return err
		}

		uid := s.Identity.ID
		entry := ApprovalLog{WorkflowID: w.ID, SessionID: w.SessionID, Action: state.ActionSubmit,
			UserID: &uid, ActionedByRoleID: &submittedRoleID, ForwardedToRoleID: &currentRoleID,
			Remarks: c.Remarks, ClientIP: c.ClientIP, UserAgent: c.UserAgent, CreateTime: now}
		if err := appendLog(tx, &entry); err != nil {
			return err
		}

		ev, err = createWorkflowEvent(tx, nil, w, event.EventCategoryCreated, s, now)
		if err != nil {
			return err
		}
		message = "KYC submitted for review to " + first.RoleName
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &ActionResult{Success: true, Message: message, Workflow: w}, nil
}

// ApproveWorkflow moves the record to the next role of the live chain, or completes it at the end of the chain
func ApproveWorkflow(id types.ID, a *WorkflowAction, s *session.Session) (*ActionResult, error) {
	return execute(id, &operation{action: state.ActionApprove, mode: gateHolderOrOverride,
		version: a.Version, clientIP: a.ClientIP, userAgent: a.UserAgent,
		decide: func(tx *gorm.DB, w *KycWorkflow) (*transition, error) {
			ch, err := chain.ResolveFunc(tx, w.SubmittedOrderLevel)
			if err != nil {
				return nil, err
			}
			if ch.Empty() {
				logrus.WithFields(logrus.Fields{"workflowId": w.ID, "submittedOrderLevel": w.SubmittedOrderLevel}).
					Error("approval chain is empty, refusing to complete the workflow")
				return nil, &bizerror.ErrChainMisconfigured{Reason: fmt.Sprintf(
					"no role is ranked above order level %d, the KYC can not be approved until the chain is corrected", w.SubmittedOrderLevel)}
			}

			t := &transition{remarks: a.Remarks, changes: map[string]interface{}{"full_chain": ch.Describe()}}
			if a.Remarks != "" {
				t.changes["last_remarks"] = a.Remarks
			}
			next := ch.NextAfter(currentLevel(ch, w))
			if next == nil {
				t.changes["status"] = state.StatusApproved
				t.changes["current_role_id"] = nil
				t.changes["current_order_level"] = nil
				t.changes["pending_level"] = 0
				t.message = "KYC fully approved"
				return t, nil
			}
			t.changes["current_role_id"] = next.RoleID
			t.changes["current_order_level"] = next.OrderLevel
			t.changes["pending_level"] = ch.PendingFrom(next.OrderLevel)
			t.forwardedTo = &next.RoleID
			t.message = "KYC approved and forwarded to " + next.RoleName
			return t, nil
		},
	}, s)
}

// RejectWorkflow either closes the record as Rejected or, with ReturnToPrevious, sends it back to the submitting role
func RejectWorkflow(id types.ID, a *WorkflowAction, s *session.Session) (*ActionResult, error) {
	if strings.TrimSpace(a.Remarks) == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("remarks are required to reject a KYC")}
	}
	return execute(id, &operation{action: state.ActionReject, mode: gateHolderOrOverride,
		version: a.Version, clientIP: a.ClientIP, userAgent: a.UserAgent,
		decide: func(tx *gorm.DB, w *KycWorkflow) (*transition, error) {
			if a.ReturnToPrevious {
				t, err := rewindToSubmitter(tx, w)
				if err != nil {
					return nil, err
				}
				t.remarks = a.Remarks
				t.changes["last_remarks"] = a.Remarks
				t.message = "KYC returned to " + t.message + " for resubmission"
				return t, nil
			}
			return &transition{remarks: a.Remarks, message: "KYC rejected",
				changes: map[string]interface{}{"status": state.StatusRejected, "last_remarks": a.Remarks}}, nil
		},
	}, s)
}

// ResubmitWorkflow restarts the review from the first role of the live chain.
// Only the holder of the current role may resubmit, administrators included.
func ResubmitWorkflow(id types.ID, a *WorkflowAction, s *session.Session) (*ActionResult, error) {
	return execute(id, &operation{action: state.ActionResubmit, mode: gateHolderOnly,
		version: a.Version, clientIP: a.ClientIP, userAgent: a.UserAgent,
		decide: func(tx *gorm.DB, w *KycWorkflow) (*transition, error) {
			ch, err := chain.ResolveFunc(tx, w.SubmittedOrderLevel)
			if err != nil {
				return nil, err
			}
			first, err := ch.First()
			if err != nil {
				logrus.WithFields(logrus.Fields{"workflowId": w.ID, "submittedOrderLevel": w.SubmittedOrderLevel}).Error(err)
				return nil, err
			}
			t := &transition{remarks: a.Remarks, forwardedTo: &first.RoleID,
				message: "KYC resubmitted to " + first.RoleName,
				changes: map[string]interface{}{
					"status":              state.StatusInReview,
					"current_role_id":     first.RoleID,
					"current_order_level": first.OrderLevel,
					"pending_level":       ch.Len(),
					"full_chain":          ch.Describe(),
				}}
			if a.Remarks != "" {
				t.changes["last_remarks"] = a.Remarks
			}
			return t, nil
		},
	}, s)
}

// PullBackWorkflow retracts a record under review back to the submitting role, remarks are optional
func PullBackWorkflow(id types.ID, a *WorkflowAction, s *session.Session) (*ActionResult, error) {
	return execute(id, &operation{action: state.ActionPullBack, mode: gateHolderOrOverride,
		version: a.Version, clientIP: a.ClientIP, userAgent: a.UserAgent,
		decide: func(tx *gorm.DB, w *KycWorkflow) (*transition, error) {
			t, err := rewindToSubmitter(tx, w)
			if err != nil {
				return nil, err
			}
			t.remarks = a.Remarks
			if a.Remarks != "" {
				t.changes["last_remarks"] = a.Remarks
			}
			t.message = "KYC pulled back to " + t.message
			return t, nil
		},
	}, s)
}

// TransferWorkflowBranch reassigns the branch of an open record, status and current role stay unchanged
func TransferWorkflowBranch(id types.ID, b *BranchTransfer, s *session.Session) (*ActionResult, error) {
	if b.BranchID == 0 {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("target branch is required")}
	}
	return execute(id, &operation{action: state.ActionBranchTransfer, mode: gateHolderOrOverride,
		version: b.Version, clientIP: b.ClientIP, userAgent: b.UserAgent,
		decide: func(tx *gorm.DB, w *KycWorkflow) (*transition, error) {
			target, err := branch.FindBranch(tx, b.BranchID)
			if err != nil {
				return nil, err
			}
			if w.BranchID != nil && *w.BranchID == target.ID {
				return nil, &bizerror.ErrBadParam{Cause: errors.New("the KYC already belongs to branch " + target.Name)}
			}

			from := "head office"
			if w.BranchID != nil {
				names, err := branch.QueryBranchNames(tx, []types.ID{*w.BranchID})
				if err != nil {
					return nil, err
				}
				from = fmt.Sprintf("%s (%s)", names[*w.BranchID], w.BranchID.String())
			}
			remarks := fmt.Sprintf("branch transferred from %s to %s (%s)", from, target.Name, target.ID.String())
			if b.Remarks != "" {
				remarks += ": " + b.Remarks
			}
			return &transition{remarks: remarks, message: "KYC transferred to branch " + target.Name,
				changes: map[string]interface{}{"branch_id": target.ID}}, nil
		},
	}, s)
}

// PullWorkflowToMyBranch transfers the record to the branch of the actor
func PullWorkflowToMyBranch(id types.ID, a *WorkflowAction, s *session.Session) (*ActionResult, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	if !s.HasBranch() {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("you are not assigned to a branch")}
	}
	return TransferWorkflowBranch(id, &BranchTransfer{BranchID: *s.BranchID, Remarks: a.Remarks,
		Version: a.Version, ClientIP: a.ClientIP, UserAgent: a.UserAgent}, s)
}

// execute runs one transition atomically: record update, approval log entry and event record, or nothing
func execute(id types.ID, op *operation, s *session.Session) (*ActionResult, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	if op.version == nil {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("version of the KYC record is required")}
	}

	now := time.Now()
	var updated *KycWorkflow
	var ev *event.EventRecord
	var message string
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		w, err := findWorkflow(tx, id)
		if err != nil {
			return err
		}
		if !state.KycStateMachine.CanPerform(op.action, w.Status) {
			return &bizerror.ErrInvalidStateTransition{Action: op.action, Status: w.Status}
		}
		actingRoleID, err := authorize(tx, s, w, op.mode)
		if err != nil {
			return err
		}
		if *op.version != w.Version {
			return bizerror.ErrConcurrentModification
		}

		t, err := op.decide(tx, w)
		if err != nil {
			return err
		}
		t.changes["update_time"] = now
		if err := guardedUpdate(tx, w, t.changes); err != nil {
			return err
		}
		updated, err = findWorkflow(tx, id)
		if err != nil {
			return err
		}

		uid := s.Identity.ID
		entry := ApprovalLog{WorkflowID: w.ID, SessionID: w.SessionID, Action: op.action,
			UserID: &uid, ActionedByRoleID: actingRoleID, ForwardedToRoleID: t.forwardedTo,
			Remarks: t.remarks, ClientIP: op.clientIP, UserAgent: op.userAgent, CreateTime: now}
		if err := appendLog(tx, &entry); err != nil {
			return err
		}

		ev, err = createWorkflowEvent(tx, w, updated, event.EventCategoryPropertyUpdated, s, now)
		if err != nil {
			return err
		}
		message = t.message
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &ActionResult{Success: true, Message: message, Workflow: updated}, nil
}

func findWorkflow(db *gorm.DB, id types.ID) (*KycWorkflow, error) {
	w := KycWorkflow{}
	if err := db.Where("id = ?", id).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrWorkflowNotFound
		}
		return nil, err
	}
	return &w, nil
}

// guardedUpdate applies changes only when nobody updated the record since it was read
func guardedUpdate(tx *gorm.DB, w *KycWorkflow, changes map[string]interface{}) error {
	changes["version"] = gorm.Expr("version + ?", 1)
	q := tx.Model(&KycWorkflow{}).Where("id = ? AND version = ?", w.ID, w.Version).Updates(changes)
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected != 1 {
		logrus.WithFields(logrus.Fields{"workflowId": w.ID, "version": w.Version}).Warn("stale workflow update rejected")
		return bizerror.ErrConcurrentModification
	}
	return nil
}

// rewindToSubmitter parks the record at the submitting role as ResubmissionRequired.
// The returned message holds the name of that role.
func rewindToSubmitter(tx *gorm.DB, w *KycWorkflow) (*transition, error) {
	level := w.SubmittedOrderLevel
	name := "the submitter"
	r, err := role.FindRole(tx, w.SubmittedRoleID)
	if err != nil && !errors.Is(err, bizerror.ErrRoleNotFound) {
		return nil, err
	}
	if r != nil {
		name = r.Name
		if r.OrderLevel != nil {
			level = *r.OrderLevel
		}
	}

	ch, err := chain.ResolveFunc(tx, w.SubmittedOrderLevel)
	if err != nil {
		return nil, err
	}
	pending := ch.Len()
	if pending == 0 {
		pending = w.PendingLevel
	}
	submittedRoleID := w.SubmittedRoleID
	t := &transition{forwardedTo: &submittedRoleID, message: name,
		changes: map[string]interface{}{
			"status":              state.StatusResubmissionRequired,
			"current_role_id":     submittedRoleID,
			"current_order_level": level,
			"pending_level":       pending,
		}}
	if !ch.Empty() {
		t.changes["full_chain"] = ch.Describe()
	}
	return t, nil
}

// currentLevel prefers the live level of the current role, a role removed from the chain keeps its recorded level
func currentLevel(ch *chain.Chain, w *KycWorkflow) int {
	if w.CurrentRoleID != nil {
		if m, found := ch.Find(*w.CurrentRoleID); found {
			return m.OrderLevel
		}
	}
	if w.CurrentOrderLevel != nil {
		return *w.CurrentOrderLevel
	}
	return w.SubmittedOrderLevel
}

func createWorkflowEvent(tx *gorm.DB, before, after *KycWorkflow, category event.EventCategory,
	s *session.Session, now time.Time) (*event.EventRecord, error) {
	if before == nil {
		before = &KycWorkflow{}
	}

	var roleIds []types.ID
	for _, id := range []*types.ID{before.CurrentRoleID, after.CurrentRoleID} {
		if id != nil {
			roleIds = append(roleIds, *id)
		}
	}
	roleNames, err := role.QueryRoleNames(tx, roleIds)
	if err != nil {
		return nil, err
	}

	var properties []event.UpdatedProperty
	if before.Status != after.Status {
		properties = append(properties, event.UpdatedProperty{PropertyName: "Status", PropertyDesc: "Status",
			OldValue: before.Status, OldValueDesc: before.Status, NewValue: after.Status, NewValueDesc: after.Status})
	}
	if before.PendingLevel != after.PendingLevel {
		properties = append(properties, event.UpdatedProperty{PropertyName: "PendingLevel", PropertyDesc: "Pending Level",
			OldValue: fmt.Sprint(before.PendingLevel), OldValueDesc: fmt.Sprint(before.PendingLevel),
			NewValue: fmt.Sprint(after.PendingLevel), NewValueDesc: fmt.Sprint(after.PendingLevel)})
	}

	var relations []event.UpdatedRelation
	if idText(before.CurrentRoleID) != idText(after.CurrentRoleID) {
		relations = append(relations, event.UpdatedRelation{PropertyName: "CurrentRole", PropertyDesc: "Current Role",
			TargetType: "ROLE", TargetTypeDesc: "Role",
			OldTargetId: idText(before.CurrentRoleID), OldTargetDesc: nameOf(roleNames, before.CurrentRoleID),
			NewTargetId: idText(after.CurrentRoleID), NewTargetDesc: nameOf(roleNames, after.CurrentRoleID)})
	}
	if idText(before.BranchID) != idText(after.BranchID) {
		relations = append(relations, event.UpdatedRelation{PropertyName: "Branch", PropertyDesc: "Branch",
			TargetType: "BRANCH", TargetTypeDesc: "Branch",
			OldTargetId: idText(before.BranchID), NewTargetId: idText(after.BranchID)})
	}

	return event.CreateEvent(SourceTypeKycWorkflow, after.ID, "KYC session "+after.SessionID.String(), category,
		properties, relations, &s.Identity, now, tx)
}

func nameOf(names map[types.ID]string, id *types.ID) string {
	if id == nil {
		return ""
	}
	return names[*id]
}
