package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
)

const (
	EventCategoryCreated         = "CREATED"
	EventCategoryPropertyUpdated = "PROPERTY_UPDATED"
	EventCategoryRelationUpdated = "RELATION_UPDATED"
)

type EventCategory string

type Event struct {
	SourceId   types.ID `json:"sourceId"`
	SourceType string   `json:"sourceType"`
	SourceDesc string   `json:"sourceDesc"`

	CreatorId   types.ID `json:"creatorId"`
	CreatorName string   `json:"creatorName"`

	EventCategory     EventCategory     `json:"eventCategory"` // CREATED, PROPERTY_UPDATED, RELATION_UPDATED
	UpdatedProperties UpdatedProperties `json:"updatedProperties" sql:"type:TEXT"`
	UpdatedRelations  UpdatedRelations  `json:"updatedRelations" sql:"type:TEXT"`
}

type EventRecord struct {
	ID types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	Event

	Timestamp time.Time `json:"timestamp"`
	// Synced is set once the search index has absorbed the event
	Synced    bool      `json:"synced"`
}

func (r *EventRecord) TableName() string {
	return "events"
}

type UpdatedProperty struct {
	PropertyName string `json:"propertyName"`
	PropertyDesc string `json:"propertyDesc"`

	OldValue     string `json:"oldValue"`
	OldValueDesc string `json:"oldValueDesc"`
	NewValue     string `json:"newValue"`
	NewValueDesc string `json:"newValueDesc"`
}

type UpdatedProperties []UpdatedProperty

type UpdatedRelation struct {
	PropertyName string `json:"propertyName"`
	PropertyDesc string `json:"propertyDesc"`

	TargetType     string `json:"targetType"`
	TargetTypeDesc string `json:"targetTypeDesc"`

	OldTargetId   string `json:"oldTargetId"`
	OldTargetDesc string `json:"oldTargetDesc"`
	NewTargetId   string `json:"newTargetId"`
	NewTargetDesc string `json:"newTargetDesc"`
}

type UpdatedRelations []UpdatedRelation

// NewPropertyValue returns the value a property was changed to by the event
func (e *Event) NewPropertyValue(name string) (string, bool) {
	for _, p := range e.UpdatedProperties {
		if p.PropertyName == name {
			return p.NewValue, true
		}
	}
	return "", false
}

func (t UpdatedProperties) Value() (driver.Value, error) {
	return jsonValue(t)
}

func (c *UpdatedProperties) Scan(v interface{}) error {
	return scanJSON(v, c)
}

func (t UpdatedRelations) Value() (driver.Value, error) {
	return jsonValue(t)
}

func (c *UpdatedRelations) Scan(v interface{}) error {
	return scanJSON(v, c)
}

// columns are TEXT holding json
func jsonValue(v interface{}) (driver.Value, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func scanJSON(v interface{}, target interface{}) error {
	switch raw := v.(type) {
	case string:
		return json.Unmarshal([]byte(raw), target)
	case []byte:
		return json.Unmarshal(raw, target)
	default:
		return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
	}
}
