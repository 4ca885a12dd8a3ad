package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in access tokens
const (
	RoleMember = "member"
	RoleCoach  = "coach"
)

// LiftlogClaims are the access-token claims issued by the auth service
type LiftlogClaims struct {
	UserID   string   `json:"user_id"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles"`
	TenantID string   `json:"tenant_id"`
	jwt.RegisteredClaims
}
