package middleware

import "context"

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxFranchiseID contextKey = "franchise_id"
	ctxDelegatedBy contextKey = "delegated_by"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func FranchiseIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxFranchiseID)
}

// DelegatedByFromContext returns the principal a standard admin acts for.
func DelegatedByFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxDelegatedBy)
}

// WithActor injects an authenticated caller; tests use it to skip token minting.
func WithActor(ctx context.Context, userID, role, franchiseID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if franchiseID != "" {
		ctx = context.WithValue(ctx, ctxFranchiseID, franchiseID)
	}
	return ctx
}
