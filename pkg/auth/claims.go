package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	BusinessID *uuid.UUID
	Role       enums.MemberRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. BusinessID is
// set for vendor-side members and absent for buyers and platform admins.
type AccessTokenClaims struct {
	UserID     uuid.UUID        `json:"user_id"`
	BusinessID *uuid.UUID       `json:"business_id,omitempty"`
	Role       enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
