package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/smartpos/smartpos-backend/api/responses"
	pkgAuth "github.com/smartpos/smartpos-backend/pkg/auth"
	"github.com/smartpos/smartpos-backend/pkg/auth/session"
	"github.com/smartpos/smartpos-backend/pkg/config"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

// ActorResolver turns verified claims into the actor a request runs as.
type ActorResolver interface {
	Resolve(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (visibility.Actor, error)
}

// Auth validates a bearer token, checks its session is live and seeds the
// request context with the resolved actor.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, resolver ActorResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			actor := visibility.Actor{UserID: claims.UserID, Role: claims.Role, BranchID: claims.BranchID}
			if claims.BusinessID != nil {
				actor.BusinessID = *claims.BusinessID
			}
			if resolver != nil {
				actor, err = resolver.Resolve(r.Context(), claims)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}

			ctx := WithActor(r.Context(), actor)
			ctx = WithAccessID(ctx, claims.ID)

			if logg != nil {
				fields := map[string]any{
					"user_id":    actor.UserID.String(),
					"actor_role": actor.Role.String(),
				}
				if !actor.Operator() {
					fields["business_id"] = actor.BusinessID.String()
				}
				if actor.BranchID != nil {
					fields["branch_id"] = actor.BranchID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}
