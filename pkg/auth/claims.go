package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims accepted by the integrity services.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Roles  []string  `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Role constants
const (
	RoleAdmin     = "admin"
	RoleEngineer  = "engineer"
	RoleInspector = "inspector"
	// RoleService is carried by machine tokens, e.g. the backend calling the ML services.
	RoleService = "service"
)
