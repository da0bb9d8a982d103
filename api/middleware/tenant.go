package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/api/responses"
	pkgerrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

const (
	tenantIDHeader  = "X-Tenant-Id"
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// TenantContext resolves the tenant and acting user from the gateway headers
// and rejects requests without a parseable tenant.
func TenantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := strings.TrimSpace(r.Header.Get(tenantIDHeader))
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant header missing"))
				return
			}
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant header"))
				return
			}

			ctx = WithTenantID(ctx, tenantID)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}

			if rawActor := strings.TrimSpace(r.Header.Get(actorIDHeader)); rawActor != "" {
				actorID, err := uuid.Parse(rawActor)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor header"))
					return
				}
				ctx = WithActor(ctx, actorID, strings.TrimSpace(r.Header.Get(actorRoleHeader)))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
