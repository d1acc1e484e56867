package event

import (
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	EventPersistCreateFunc = eventPersistCreate
	MarkEventSyncedFunc    = markEventSynced
	LoadUnsyncedEventsFunc = LoadUnsyncedEvents
)

func eventPersistCreate(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

func markEventSynced(id types.ID, db *gorm.DB) error {
	return db.Model(&EventRecord{}).Where("id = ?", id).Update("synced", true).Error
}

// LoadUnsyncedEvents returns events of sourceType that no handler has absorbed since before, oldest first
func LoadUnsyncedEvents(sourceType string, before time.Time, limit int, db *gorm.DB) ([]EventRecord, error) {
	records := []EventRecord{}
	if err := db.Where("source_type = ? AND synced = ? AND timestamp < ?", sourceType, false, before).
		Order("timestamp ASC").Order("id ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
