package middleware

import (
	"context"

	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxRole       contextKey = "actor_role"
	ctxBusinessID contextKey = "business_id"
	ctxAccessID   contextKey = "access_id"
	ctxActor      contextKey = "actor"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func BusinessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxBusinessID)
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

// ActorFromContext returns the resolved actor placed by Auth.
func ActorFromContext(ctx context.Context) (visibility.Actor, bool) {
	if ctx == nil {
		return visibility.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(visibility.Actor)
	return actor, ok
}

// WithActor injects the actor and its identifiers into the context.
func WithActor(ctx context.Context, actor visibility.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActor, actor)
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, actor.Role.String())
	if !actor.Operator() {
		ctx = context.WithValue(ctx, ctxBusinessID, actor.BusinessID.String())
	}
	return ctx
}

// WithAccessID injects the token jti into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
