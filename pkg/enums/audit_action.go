package enums

import "fmt"

// AuditAction is the canonical action recorded on an audit entry.
type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionReassign   AuditAction = "REASSIGN"
	AuditActionDeactivate AuditAction = "DEACTIVATE"
	AuditActionActivate   AuditAction = "ACTIVATE"
	AuditActionRestore    AuditAction = "RESTORE"
)

var validAuditActions = []AuditAction{
	AuditActionCreate,
	AuditActionUpdate,
	AuditActionDelete,
	AuditActionReassign,
	AuditActionDeactivate,
	AuditActionActivate,
	AuditActionRestore,
}

// IsValid reports whether the value matches the canonical audit action enum.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts the raw string to AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
