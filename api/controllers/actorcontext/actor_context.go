package actorcontext

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/api/middleware"
	"github.com/homeward/settlement-backend/internal/invoices"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
)

// ResolveActor turns the authenticated caller into the actor invoice
// computations run as.
func ResolveActor(r *http.Request) (invoices.Actor, error) {
	ctx := r.Context()
	userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return invoices.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseActorRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return invoices.Actor{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role")
	}

	actor := invoices.Actor{UserID: userID, Role: role}
	if raw := middleware.DelegatedByFromContext(ctx); raw != "" {
		principal, err := uuid.Parse(raw)
		if err != nil {
			return invoices.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid delegated principal")
		}
		actor.DelegatedBy = &principal
	}
	return actor, nil
}

// ResolveOwnerID returns the caller's id and requires the owner role.
func ResolveOwnerID(r *http.Request) (uuid.UUID, error) {
	actor, err := ResolveActor(r)
	if err != nil {
		return uuid.Nil, err
	}
	if actor.Role != enums.ActorRoleOwner {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "owner access required")
	}
	return actor.UserID, nil
}

// ResolveFranchiseID extracts the franchise the caller's token is bound to.
func ResolveFranchiseID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.FranchiseIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "franchise context required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid franchise id")
	}
	return id, nil
}
