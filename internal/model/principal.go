package model

import "github.com/google/uuid"

// Principal is the authenticated identity extracted from a token.
type Principal struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     UserRole  `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsModerator() bool {
	return p.Role == RoleModerator
}

// CanManageFleet reports whether the principal may create and modify
// vehicles, trips and maintenance records.
func (p Principal) CanManageFleet() bool {
	return p.IsAdmin() || p.IsModerator()
}
