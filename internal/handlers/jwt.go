package handlers

import (
	"errors"
	"fmt"
	"time"

	"crowdmint-backend/internal/dto"

	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middleware
const (
	ContextUserID        = "user_id"
	ContextWorkerID      = "worker_id"
	ContextAdminUsername = "admin_username"
)

// GenerateJWTToken signs a bearer token for a requester or a worker
func GenerateJWTToken(secret []byte, issuer, subjectID, role string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := dto.JWTClaims{
		UserID: subjectID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subjectID,
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWTToken parses and verifies a requester or worker token
func ValidateJWTToken(secret []byte, tokenString string) (*dto.JWTClaims, error) {
	claims := &dto.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateAdminJWTToken signs an admin session token
func GenerateAdminJWTToken(secret []byte, username string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("admin jwt secret is empty")
	}
	now := time.Now()
	claims := dto.AdminJWTClaims{
		Username: username,
		Role:     dto.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "crowdmint-backend-admin",
			Subject:   username,
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateAdminJWTToken parses and verifies an admin token
func ValidateAdminJWTToken(secret []byte, tokenString string) (*dto.AdminJWTClaims, error) {
	claims := &dto.AdminJWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(secret) == 0 {
			return nil, errors.New("jwt secret is empty")
		}
		return secret, nil
	}
}
