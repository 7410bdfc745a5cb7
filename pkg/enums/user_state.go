package enums

import "fmt"

// UserState is the derived lifecycle state of a user. It is not stored as a
// column; it is computed from the is_active / is_setup_complete / is_deleted
// flags so the flags stay the single source of truth.
type UserState string

const (
	UserStateInvited     UserState = "INVITED"
	UserStateActive      UserState = "ACTIVE"
	UserStateDeactivated UserState = "DEACTIVATED"
	UserStateDeleted     UserState = "DELETED"
)

var validUserStates = []UserState{
	UserStateInvited,
	UserStateActive,
	UserStateDeactivated,
	UserStateDeleted,
}

// String implements fmt.Stringer.
func (u UserState) String() string {
	return string(u)
}

// IsValid reports whether the value matches the canonical user state enum.
func (u UserState) IsValid() bool {
	for _, candidate := range validUserStates {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserState converts the raw string to UserState.
func ParseUserState(value string) (UserState, error) {
	for _, candidate := range validUserStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user state: %q", value)
}

// DeriveUserState maps the persisted flags onto the lifecycle state.
// DELETED wins over everything; a user who never completed setup but is
// still enabled shows as INVITED.
func DeriveUserState(isActive, isSetupComplete, isDeleted bool) UserState {
	switch {
	case isDeleted:
		return UserStateDeleted
	case !isActive:
		return UserStateDeactivated
	case !isSetupComplete:
		return UserStateInvited
	default:
		return UserStateActive
	}
}
