// Package identity carries the caller identity resolved by the upstream
// gateway. The core trusts the (user id, role) pair attached to each request
// and performs no authentication of its own.
package identity

// Role distinguishes the single admin identity from regular customers.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Actor is the validated identity behind a request.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
