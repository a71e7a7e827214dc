package middleware

import (
	"net/http"
	"strconv"

	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

const (
	tenantHeader = "X-Tenant-ID"
	actorHeader  = "X-Actor"
)

// RequireTenant resolves the X-Tenant-ID header against the tenants
// table and stores the scope in the request context. Every /api route
// except tenant provisioning runs behind it. The optional X-Actor
// header names the person making the change for audit fields.
func RequireTenant(tenants *store.TenantStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(tenantHeader)
			if raw == "" {
				http.Error(w, "missing tenant", http.StatusUnauthorized)
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "invalid tenant", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetByID(id)
			if err != nil {
				http.Error(w, "tenant lookup failed", http.StatusInternalServerError)
				return
			}
			if tenant == nil {
				http.Error(w, "unknown tenant", http.StatusUnauthorized)
				return
			}

			ctx := tenantctx.WithRequest(r.Context(), tenantctx.RequestContext{
				TenantID: tenant.ID,
				Actor:    r.Header.Get(actorHeader),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
