package event

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventHandler returns nil when the event is of no interest to it
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

// invokeHandlers runs after the transaction committed, a failing handler never affects the others
func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		r := safeHandle(handler, record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := logrus.WithFields(logrus.Fields{"eventId": record.ID, "sourceType": record.SourceType,
			"sourceId": record.SourceId, "handler": r.HandlerIdentifier})
		if r.Success {
			entry.Info("event handled ", r.Message)
		} else {
			entry.Error("event handling failed: ", r.Message)
		}
	}
	return results
}

func safeHandle(handler EventHandler, record *EventRecord) (r *EventHandleResult) {
	defer func() {
		if ret := recover(); ret != nil {
			r = &EventHandleResult{Success: false, Message: fmt.Sprintf("handler panic: %v", ret), HandlerIdentifier: "unknown"}
		}
	}()
	return handler(record)
}
