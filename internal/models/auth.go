package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload. Role drives every authorisation
// decision through the capability table.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Can reports whether the token's role grants capability.
func (c *JWTClaims) Can(capability Capability) bool {
	return c != nil && c.Role.Can(capability)
}

// IsStudent reports whether the caller is restricted to their own records.
func (c *JWTClaims) IsStudent() bool {
	return c != nil && c.Role == RoleStudent
}
