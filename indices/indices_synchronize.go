package indices

import (
	"context"
	"errors"
	"fmt"
	"kycflow/bizerror"
	"kycflow/client/es"
	"kycflow/domain/approval"
	"kycflow/event"
	"kycflow/persistence"
	"kycflow/session"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	WorkflowIndexEventHandlerName = "workflowIndexer"

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun

	SyncBatchSize = 500
)

// ScheduleNewSyncRun starts a full resync in the background unless one is already running
func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if !s.Authenticated() {
		return false, bizerror.ErrUnauthenticated
	}
	if !s.Perms.HasGlobalOverride() {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Errorf("indices full sync: %v", err)
		}
	}()
	waitRunning.Wait()
	return true, nil
}

// IndicesFullSync reindexes every workflow page by page, a failed page is logged and skipped
func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		workflows, err := approval.LoadWorkflowsFunc(page, SyncBatchSize)
		if err != nil {
			return fmt.Errorf("load workflows (page = %d, pageSize = %d): %w", page, SyncBatchSize, err)
		}
		if len(workflows) == 0 {
			logrus.Infof("indices full sync: %d pages indexed", page-1)
			return nil
		}
		if err := IndexWorkflows(context.Background(), workflows); err != nil {
			logrus.Warnf("indices full sync: error on index workflows (page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		page++
	}
}

// IndexWorkflowEventHandle keeps the document of a workflow in line with its record after each transition
func IndexWorkflowEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != approval.SourceTypeKycWorkflow {
		return nil
	}

	ctx := context.Background()
	w, err := approval.LoadWorkflowFunc(ctx, e.SourceId)
	if errors.Is(err, bizerror.ErrWorkflowNotFound) {
		if err := es.DeleteDocumentByIdFunc(ctx, WorkflowIndexName, e.SourceId); err != nil {
			return &event.EventHandleResult{Message: fmt.Sprintf("delete workflow index %d, %v", e.SourceId, err),
				HandlerIdentifier: WorkflowIndexEventHandlerName}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
	}
	if err != nil {
		return &event.EventHandleResult{Message: fmt.Sprintf("load workflow %d, %v", e.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName}
	}

	if err := IndexWorkflows(ctx, []approval.WorkflowSummary{*w}); err != nil {
		return &event.EventHandleResult{Message: fmt.Sprintf("index workflow %d, %v", e.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName}
	}
	if err := event.MarkEventSyncedFunc(e.ID, persistence.ActiveDataSourceManager.GormDB(ctx)); err != nil {
		logrus.Warnf("mark event %d synced: %v", e.ID, err)
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
}

var (
	RecoverUnsyncedEventsFunc = RecoverUnsyncedEvents

	// UnsyncedEventGrace leaves recent events to the handler that runs right after commit
	UnsyncedEventGrace = time.Minute
)

// RecoverUnsyncedEvents replays the indexing of events the index has not absorbed, e.g. because
// the search cluster was unreachable when the transition committed
func RecoverUnsyncedEvents() (int, error) {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	records, err := event.LoadUnsyncedEventsFunc(approval.SourceTypeKycWorkflow, time.Now().Add(-UnsyncedEventGrace), SyncBatchSize, db)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for i := range records {
		r := IndexWorkflowEventHandle(&records[i])
		if r != nil && r.Success {
			recovered++
		} else if r != nil {
			logrus.Warnf("recover event %d: %s", records[i].ID, r.Message)
		}
	}
	return recovered, nil
}
