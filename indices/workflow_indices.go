package indices

import (
	"context"
	"fmt"
	"kycflow/client/es"
	"kycflow/domain/approval"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	WorkflowIndexName = "kyc_workflows"
)

// WorkflowDocument is what the search index holds for a workflow, display names are resolved at index time
type WorkflowDocument struct {
	approval.WorkflowSummary

	IndexedTime time.Time `json:"indexedTime"`
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexWorkflows(ctx context.Context, workflows []approval.WorkflowSummary) error {
	now := time.Now()
	errs := BatchActionError{}
	for _, w := range workflows {
		doc := WorkflowDocument{WorkflowSummary: w, IndexedTime: now}
		if err := es.IndexFunc(ctx, WorkflowIndexName, w.ID, doc); err != nil {
			errs[w.ID] = err
			logrus.WithFields(logrus.Fields{"workflowId": w.ID, "sessionId": w.SessionID}).Warnf("index workflow failed: %v", err)
		} else {
			logrus.WithFields(logrus.Fields{"workflowId": w.ID, "sessionId": w.SessionID}).Debug("workflow indexed")
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
