package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/config"
	"github.com/homeward/settlement-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "homeward-identity"}

func TestMintAndParseActorToken(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	franchiseID := uuid.New()
	principal := uuid.New()

	token, err := MintActorToken(testJWT, now, 30*time.Minute, ActorPayload{
		UserID:      userID,
		Role:        enums.ActorRoleFranchiseAdmin,
		FranchiseID: &franchiseID,
		DelegatedBy: &principal,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseActorToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.ActorRoleFranchiseAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.FranchiseID == nil || *claims.FranchiseID != franchiseID {
		t.Fatalf("franchise id not preserved")
	}
	if claims.DelegatedBy == nil || *claims.DelegatedBy != principal {
		t.Fatalf("delegation not preserved")
	}
	if claims.Issuer != testJWT.Issuer {
		t.Fatalf("issuer mismatch")
	}
}

func TestParseActorTokenRejectsExpired(t *testing.T) {
	token, err := MintActorToken(testJWT, time.Now().Add(-2*time.Hour), time.Hour, ActorPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseActorToken(testJWT, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseActorTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	token, err := MintActorToken(testJWT, time.Now(), time.Hour, ActorPayload{UserID: uuid.New(), Role: enums.ActorRoleOwner})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseActorToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, token); err == nil {
		t.Fatal("expected issuer mismatch")
	}
	if _, err := ParseActorToken(config.JWTConfig{Secret: "other", Issuer: testJWT.Issuer}, token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestParseActorTokenRejectsUnknownRole(t *testing.T) {
	claims := ActorClaims{
		UserID: uuid.New(),
		Role:   enums.ActorRole("janitor"),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWT.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseActorToken(testJWT, token); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestMintActorTokenValidation(t *testing.T) {
	if _, err := MintActorToken(config.JWTConfig{Issuer: "x"}, time.Now(), time.Hour, ActorPayload{Role: enums.ActorRoleOwner}); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := MintActorToken(testJWT, time.Now(), 0, ActorPayload{Role: enums.ActorRoleOwner}); err == nil {
		t.Fatal("expected ttl error")
	}
	if _, err := MintActorToken(testJWT, time.Now(), time.Hour, ActorPayload{Role: "bogus"}); err == nil {
		t.Fatal("expected role error")
	}
}
