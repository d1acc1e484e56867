package approval

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"kycflow/idgen"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// ApprovalLog is append only. Every entry hashes its predecessor, so any later edit
// of a stored entry breaks the chain from that entry on.
type ApprovalLog struct {
	ID         types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	WorkflowID types.ID `json:"workflowId" gorm:"unique_index:uni_log_workflow_seq"`
	Seq        int      `json:"seq" gorm:"unique_index:uni_log_workflow_seq"`
	SessionID  types.ID `json:"sessionId"`
	Action     string   `json:"action"`

	// UserID is nil for entries written by the system
	UserID            *types.ID `json:"userId"`
	ActionedByRoleID  *types.ID `json:"actionedByRoleId"`
	ForwardedToRoleID *types.ID `json:"forwardedToRoleId"`

	Remarks   string `json:"remarks" sql:"type:TEXT"`
	ClientIP  string `json:"clientIp"`
	UserAgent string `json:"userAgent"`

	CreateTime time.Time `json:"createTime"`
	PrevHash   string    `json:"prevHash"`
	Hash       string    `json:"hash"`
}

func (l *ApprovalLog) TableName() string {
	return "kyc_approval_logs"
}

type ApprovalLogDetail struct {
	ApprovalLog

	UserName            string `json:"userName"`
	ActionedByRoleName  string `json:"actionedByRoleName"`
	ForwardedToRoleName string `json:"forwardedToRoleName"`
}

var logIdWorker = idgen.NewIdWorker()

// appendLog numbers the entry after the last one of its workflow and seals it
func appendLog(tx *gorm.DB, entry *ApprovalLog) error {
	var last []ApprovalLog
	if err := tx.Where("workflow_id = ?", entry.WorkflowID).Order("seq DESC").Limit(1).Find(&last).Error; err != nil {
		return err
	}
	entry.Seq = 1
	entry.PrevHash = ""
	if len(last) > 0 {
		entry.Seq = last[0].Seq + 1
		entry.PrevHash = last[0].Hash
	}
	entry.ID = idgen.NextID(logIdWorker)
	// stores keep whole seconds at least, the hash must survive the round trip
	entry.CreateTime = entry.CreateTime.Truncate(time.Second)
	entry.Hash = computeLogHash(entry)
	return tx.Create(entry).Error
}

func queryLogs(db *gorm.DB, workflowID types.ID) ([]ApprovalLog, error) {
	logs := []ApprovalLog{}
	if err := db.Where("workflow_id = ?", workflowID).Order("seq ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func computeLogHash(l *ApprovalLog) string {
	fields := []string{
		l.PrevHash, l.WorkflowID.String(), fmt.Sprint(l.Seq), l.SessionID.String(), l.Action,
		idText(l.UserID), idText(l.ActionedByRoleID), idText(l.ForwardedToRoleID),
		l.Remarks, l.ClientIP, l.UserAgent, fmt.Sprint(l.CreateTime.Unix()),
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func idText(id *types.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// verifyLogs walks the entries in sequence order
func verifyLogs(workflowID types.ID, logs []ApprovalLog) *AuditVerification {
	result := &AuditVerification{WorkflowID: workflowID, Entries: len(logs), Valid: true}
	prevHash := ""
	for i, l := range logs {
		switch {
		case l.Seq != i+1:
			result.Reason = fmt.Sprintf("entry %d is out of sequence, expected %d", l.Seq, i+1)
		case l.PrevHash != prevHash:
			result.Reason = fmt.Sprintf("entry %d does not link to its predecessor", l.Seq)
		case computeLogHash(&l) != l.Hash:
			result.Reason = fmt.Sprintf("entry %d was modified after it was written", l.Seq)
		default:
			prevHash = l.Hash
			continue
		}
		result.Valid = false
		result.BrokenAtSeq = l.Seq
		return result
	}
	return result
}
