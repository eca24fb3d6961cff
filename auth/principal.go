// Package auth defines the club's authenticated principals and the token
// service that turns them into signed, cookie-safe credentials.
package auth

import "fmt"

// Role is the authorization level attached to a member account. There are two
// stored roles; unauthenticated visitors act as an implicit guest with no
// Role value.
type Role string

const (
	// RoleAdmin can manage accounts and all club data.
	RoleAdmin Role = "admin"

	// RoleEditor can record results and edit club data.
	RoleEditor Role = "editor"
)

// ParseRole validates a stored or transmitted role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// In reports whether r is one of the given roles.
func (r Role) In(roles ...Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}

// Principal identifies an authenticated member for the duration of a request.
type Principal struct {
	Username string
	Email    string
	Role     Role
}
