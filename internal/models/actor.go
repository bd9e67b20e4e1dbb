package models

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleUser:
		return true
	}
	return false
}

// Actor is the server-verified caller of a lifecycle operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SystemActor is used for transitions the service performs on its own behalf.
var SystemActor = Actor{UserID: "system", Role: RoleAdmin}
