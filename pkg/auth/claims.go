package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.UserRole
	CanteenID *uuid.UUID
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. CanteenID is
// only present on vendor tokens.
type AccessTokenClaims struct {
	UserID    uuid.UUID      `json:"user_id"`
	Role      enums.UserRole `json:"role"`
	CanteenID *uuid.UUID     `json:"canteen_id,omitempty"`
	jwt.RegisteredClaims
}
