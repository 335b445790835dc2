package domain

import "fmt"

// Role participant role inside a conversation
type Role string

const (
	// RoleBuyer buyer side of a conversation
	RoleBuyer Role = "buyer"
	// RoleSeller seller side of a conversation
	RoleSeller Role = "seller"
)

// ParseRole map a senderType string to a Role, buyer is the default role
func ParseRole(s string) Role {
	if Role(s) == RoleSeller {
		return RoleSeller
	}
	return RoleBuyer
}

// Opposite return the other side of the conversation
func (r Role) Opposite() Role {
	if r == RoleBuyer {
		return RoleSeller
	}
	return RoleBuyer
}

// IdentityKey fully-qualified participant key "<role>_<userID>".
// The same key space is used by the connection registry, the presence
// store and the unseen counters.
func IdentityKey(role Role, userID string) string {
	return fmt.Sprintf("%s_%s", role, userID)
}
