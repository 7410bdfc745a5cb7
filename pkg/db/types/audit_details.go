package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// AuditDetails is the free-form payload persisted on audit entries as JSON.
// ReassignedTo fields are only populated when the action moved record ownership.
type AuditDetails struct {
	Message          string     `json:"message"`
	ReassignedTo     *uuid.UUID `json:"reassigned_to,omitempty"`
	ReassignedToName string     `json:"reassigned_to_name,omitempty"`
	RecordsMoved     int64      `json:"records_moved,omitempty"`
}

// Value implements driver.Valuer, serializing the details to JSON.
func (d AuditDetails) Value() (driver.Value, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal audit details: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (d *AuditDetails) Scan(src any) error {
	if src == nil {
		*d = AuditDetails{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported audit details type %T", src)
	}
	if len(raw) == 0 {
		*d = AuditDetails{}
		return nil
	}
	return json.Unmarshal(raw, d)
}
