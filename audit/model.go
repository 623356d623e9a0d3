// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

type Entry struct {
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	InstitutionID string          `json:"institution_id,omitempty"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}
