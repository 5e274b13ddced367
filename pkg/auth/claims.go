package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// ActorPayload is what the identity service encodes for a caller.
type ActorPayload struct {
	UserID      uuid.UUID
	Role        enums.ActorRole
	FranchiseID *uuid.UUID
	// DelegatedBy is set when an admin acts through another user's session.
	DelegatedBy *uuid.UUID
}

// ActorClaims is the JWT body accepted by this backend.
type ActorClaims struct {
	UserID      uuid.UUID       `json:"user_id"`
	Role        enums.ActorRole `json:"role"`
	FranchiseID *uuid.UUID      `json:"franchise_id,omitempty"`
	DelegatedBy *uuid.UUID      `json:"delegated_by,omitempty"`
	jwt.RegisteredClaims
}
