package mw

import (
	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/model"
)

// ResolveTenant determines the caller's active tenant, in priority order:
// URL path parameter, x-tenant-id header, tenantId query value.
// PLATFORM_ADMIN may act without a tenant (global view) or target any
// tenant; everyone else must hold a membership in the resolved tenant.
func ResolveTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			Abort(c, apperr.Unauthorized("not authenticated"))
			return
		}

		tenantID := c.Param("tenantId")
		if tenantID == "" {
			tenantID = c.GetHeader("x-tenant-id")
		}
		if tenantID == "" {
			tenantID = c.Query("tenantId")
		}

		if p.IsPlatformAdmin() {
			c.Set(CtxTenantID, tenantID)
			c.Set(CtxRole, string(model.RolePlatformAdmin))
			c.Next()
			return
		}

		if tenantID == "" {
			Abort(c, apperr.Forbidden("tenant context required"))
			return
		}
		membership := p.MembershipIn(tenantID)
		if membership == nil {
			Abort(c, apperr.Forbidden("no membership in tenant"))
			return
		}
		c.Set(CtxTenantID, tenantID)
		c.Set(CtxRole, string(membership.Role))
		c.Next()
	}
}

// RequireRole passes when the caller's active role is in the set;
// PLATFORM_ADMIN always passes.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := ActiveRole(c)
		if role == model.RolePlatformAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		Abort(c, apperr.Forbidden("insufficient role"))
	}
}
