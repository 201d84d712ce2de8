package auth

import (
	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access and refresh JWTs.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AccessTokenPayload captures the data available when minting an access JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	Email        string
	Role         enums.Role
	DepartmentID *uuid.UUID
	JTI          string
}

// AccessTokenClaims represents the typed access JWT issued to clients.
type AccessTokenClaims struct {
	UserID       uuid.UUID  `json:"userId"`
	Email        string     `json:"email"`
	Role         enums.Role `json:"role"`
	DepartmentID *uuid.UUID `json:"department,omitempty"`
	Type         TokenType  `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshTokenPayload captures the data carried by the refresh cookie.
type RefreshTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
	JTI    string
}

// RefreshTokenClaims represents the typed refresh JWT.
type RefreshTokenClaims struct {
	UserID uuid.UUID  `json:"userId"`
	Email  string     `json:"email"`
	Role   enums.Role `json:"role"`
	Type   TokenType  `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is the verified caller resolved from a request.
type Identity struct {
	UserID       uuid.UUID
	Email        string
	Role         enums.Role
	DepartmentID *uuid.UUID
	JTI          string
	// FromRefresh is set when the identity came from the refresh cookie.
	FromRefresh bool
}

func (c *AccessTokenClaims) identity() *Identity {
	return &Identity{
		UserID:       c.UserID,
		Email:        c.Email,
		Role:         c.Role,
		DepartmentID: c.DepartmentID,
		JTI:          c.ID,
	}
}

func (c *RefreshTokenClaims) identity() *Identity {
	return &Identity{
		UserID:      c.UserID,
		Email:       c.Email,
		Role:        c.Role,
		JTI:         c.ID,
		FromRefresh: true,
	}
}
