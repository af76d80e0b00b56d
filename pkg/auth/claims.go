package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/piyawat/agencydesk-backend/pkg/enums"
)

// Token use discriminators embedded into every signed token. Parsing checks
// the claim so an access token never verifies as a refresh token even if an
// operator configures identical secrets.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// TokenPayload captures the data available when minting either token kind.
type TokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Claims represents the typed JWT issued to clients.
type Claims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Role     enums.UserRole `json:"role"`
	TokenUse string         `json:"token_use"`
	jwt.RegisteredClaims
}
