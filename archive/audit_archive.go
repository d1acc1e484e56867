package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"kycflow/bizerror"
	"kycflow/client/s3"
	"kycflow/domain/approval"
	"kycflow/domain/state"
	"kycflow/event"
	"kycflow/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
)

var (
	AuditArchiverName = "auditArchiver"

	ArchiveAuditTrailFunc = ArchiveAuditTrail
	DetailArchiveFunc     = DetailArchive
)

func ArchiveKey(workflowID types.ID) string {
	return "kyc-audit/" + workflowID.String() + ".json"
}

// ArchiveAuditTrail writes the record and its approval log to the archive bucket, an existing copy is replaced
func ArchiveAuditTrail(ctx context.Context, workflowID types.ID) (*approval.AuditVerification, error) {
	trail, err := approval.LoadAuditTrailFunc(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(trail)
	if err != nil {
		return nil, err
	}
	if err := s3.PutObjectFunc(ctx, ArchiveKey(workflowID), bytes.NewReader(data),
		oss.ContentType("application/json"), oss.ObjectACL(oss.ACLPrivate)); err != nil {
		return nil, err
	}
	return &trail.Verification, nil
}

// ArchiveAuditTrailEventHandle archives the trail once the review reached Approved or Rejected
func ArchiveAuditTrailEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != approval.SourceTypeKycWorkflow {
		return nil
	}
	status, _ := e.NewPropertyValue("Status")
	if status != state.StatusApproved && status != state.StatusRejected {
		return nil
	}

	verification, err := ArchiveAuditTrailFunc(context.Background(), e.SourceId)
	if err != nil {
		return &event.EventHandleResult{Message: fmt.Sprintf("archive audit trail of workflow %d, %v", e.SourceId, err),
			HandlerIdentifier: AuditArchiverName}
	}
	if !verification.Valid {
		return &event.EventHandleResult{Message: fmt.Sprintf("archived audit trail of workflow %d is broken at entry %d: %s",
			e.SourceId, verification.BrokenAtSeq, verification.Reason), HandlerIdentifier: AuditArchiverName}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: AuditArchiverName}
}

// DetailArchive reads the archived trail of a workflow the session can see
func DetailArchive(id types.ID, s *session.Session) ([]byte, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	// resolves existence and branch scope
	if _, err := approval.VerifyAuditTrailFunc(id, s); err != nil {
		return nil, err
	}

	r, err := s3.GetObjectFunc(s.Ctx(), ArchiveKey(id))
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}
