package enums

import "fmt"

// AuditEntityType identifies the entity an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityUser    AuditEntityType = "User"
	AuditEntityCompany AuditEntityType = "Company"
	AuditEntityContact AuditEntityType = "Contact"
	AuditEntityDeal    AuditEntityType = "Deal"
)

var validAuditEntityTypes = []AuditEntityType{
	AuditEntityUser,
	AuditEntityCompany,
	AuditEntityContact,
	AuditEntityDeal,
}

// IsValid reports whether the value matches the canonical audit entity enum.
func (a AuditEntityType) IsValid() bool {
	for _, candidate := range validAuditEntityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditEntityType converts the raw string to AuditEntityType.
func ParseAuditEntityType(value string) (AuditEntityType, error) {
	for _, candidate := range validAuditEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit entity type %q", value)
}
