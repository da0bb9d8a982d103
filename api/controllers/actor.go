package controllers

import (
	"context"

	"github.com/ptcex/orderguard-backend/api/middleware"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
)

// actorFromContext builds the event actor from the gateway headers, nil when
// the request carried no actor.
func actorFromContext(ctx context.Context) *outbox.ActorRef {
	actorID, ok := middleware.ActorIDFromContext(ctx)
	if !ok {
		return nil
	}
	ref := &outbox.ActorRef{
		UserID: actorID,
		Role:   middleware.RoleFromContext(ctx),
	}
	if tenantID, ok := middleware.TenantIDFromContext(ctx); ok {
		ref.TenantID = &tenantID
	}
	return ref
}
