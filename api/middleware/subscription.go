package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/api/responses"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

// AccessChecker reports whether a business may keep using the system.
type AccessChecker interface {
	EnsureAccess(ctx context.Context, businessID uuid.UUID) error
}

// RequireSubscription blocks tenant requests once the business subscription
// is no longer running. Operators are never gated.
func RequireSubscription(checker AccessChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor"))
				return
			}
			if actor.Operator() {
				next.ServeHTTP(w, r)
				return
			}
			if err := checker.EnsureAccess(r.Context(), actor.BusinessID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
