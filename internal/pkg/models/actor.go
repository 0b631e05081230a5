package models

// Role identifies which side of a trip a caller is on
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	// RoleSystem is used by the dispatcher and background workers
	RoleSystem Role = "system"
)

// Actor is the verified identity behind an inbound operation
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is the actor used for transitions made by the service itself
var SystemActor = Actor{ID: "dispatcher", Role: RoleSystem}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}
