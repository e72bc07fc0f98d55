package domain

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleOwner    UserRole = "owner"
	RoleAdmin    UserRole = "admin"
	// RoleSystem is used by internal collaborators (payment, reservation).
	RoleSystem UserRole = "system"
)

// Actor identifies who triggered an operation.
type Actor struct {
	ID   int64    `json:"id"`
	Role UserRole `json:"role"`
}

func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}
