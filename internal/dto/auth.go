package dto

import "github.com/golang-jwt/jwt/v5"

// ==================== Auth DTOs ====================

// Roles carried in bearer tokens
const (
	RoleUser   = "user"
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// JWTClaims bearer token of a requester or a worker
type JWTClaims struct {
	UserID string `json:"userId"` // users.id or workers.id depending on Role
	Role   string `json:"role"`   // user | worker
	jwt.RegisteredClaims
}

// AdminJWTClaims admin session token
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AdminLoginRequest admin login with password and TOTP code
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totpCode" binding:"required,len=6,numeric"`
}

// AdminLoginResponse admin login result
type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}
