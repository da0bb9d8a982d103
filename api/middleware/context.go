package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxTenantID contextKey = "tenant_id"
	ctxActorID  contextKey = "actor_id"
	ctxRole     contextKey = "actor_role"
)

func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	if v, ok := ctx.Value(ctxTenantID).(uuid.UUID); ok {
		return v, true
	}
	return uuid.Nil, false
}

func ActorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	if v, ok := ctx.Value(ctxActorID).(uuid.UUID); ok {
		return v, true
	}
	return uuid.Nil, false
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithTenantID injects the tenant identifier into the context.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenantID, tenantID)
}

// WithActor injects the acting user and role into the context.
func WithActor(ctx context.Context, actorID uuid.UUID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorID, actorID)
	if role != "" {
		ctx = context.WithValue(ctx, ctxRole, role)
	}
	return ctx
}
