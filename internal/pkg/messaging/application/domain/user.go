package messaging

import "fmt"

// Role is the closed set of account types that take part in messaging.
// Contact resolution picks one strategy per variant; there is no "other".
type Role string

const (
	RoleDoctor    Role = "doctor"
	RoleCaregiver Role = "caregiver"
	RoleElder     Role = "elder"
)

// ParseRole maps a stored role string onto the closed variant set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDoctor, RoleCaregiver, RoleElder:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// User is the read-only identity slice this core consumes from the account
// subsystem: who is messaging, under which role.
type User struct {
	ID          string `db:"id" json:"id"`
	DisplayName string `db:"display_name" json:"display_name"`
	Role        Role   `db:"role" json:"role"`
}

// Contact is a counterpart the user is currently permitted to message,
// derived from an active care relationship.
type Contact struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}
