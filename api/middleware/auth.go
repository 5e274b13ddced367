package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/homeward/settlement-backend/api/responses"
	pkgAuth "github.com/homeward/settlement-backend/pkg/auth"
	"github.com/homeward/settlement-backend/pkg/config"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

// Auth validates the bearer token minted by the identity service and seeds the
// request context with the acting user.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseActorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if claims.FranchiseID != nil {
				ctx = context.WithValue(ctx, ctxFranchiseID, claims.FranchiseID.String())
			}
			if claims.DelegatedBy != nil {
				ctx = context.WithValue(ctx, ctxDelegatedBy, claims.DelegatedBy.String())
			}

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
				if claims.FranchiseID != nil {
					ctx = logg.WithFranchiseID(ctx, claims.FranchiseID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
