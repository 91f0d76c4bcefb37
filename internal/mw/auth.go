package mw

import (
	"strings"

	"github.com/gin-gonic/gin"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// Context keys set by the auth middleware chain.
const (
	CtxPrincipal = "principal"
	CtxDeviceID  = "deviceId"
	CtxTenantID  = "activeTenantId"
	CtxRole      = "activeRole"
)

// Principal is the authenticated user plus their memberships.
type Principal struct {
	UserID      string
	Email       string
	Memberships []model.Membership
}

// IsPlatformAdmin reports whether any membership carries PLATFORM_ADMIN.
func (p *Principal) IsPlatformAdmin() bool {
	for _, m := range p.Memberships {
		if m.Role == model.RolePlatformAdmin {
			return true
		}
	}
	return false
}

// MembershipIn returns the principal's membership in the tenant, or nil.
func (p *Principal) MembershipIn(tenantID string) *model.Membership {
	for i := range p.Memberships {
		if p.Memberships[i].TenantID == tenantID {
			return &p.Memberships[i]
		}
	}
	return nil
}

// Abort writes the error envelope and stops the chain.
func Abort(c *gin.Context, err error) {
	e := apperr.From(err)
	c.AbortWithStatusJSON(e.HTTPStatus(), e.Payload())
}

// GetPrincipal returns the principal set by RequireUser.
func GetPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(CtxPrincipal); ok {
		return v.(*Principal)
	}
	return nil
}

// GetDeviceID returns the device identity set by RequireDevice.
func GetDeviceID(c *gin.Context) string {
	return c.GetString(CtxDeviceID)
}

// ActiveTenantID returns the tenant resolved by ResolveTenant. Empty for
// a PLATFORM_ADMIN acting globally.
func ActiveTenantID(c *gin.Context) string {
	return c.GetString(CtxTenantID)
}

// ActiveRole returns the caller's role in the active tenant.
func ActiveRole(c *gin.Context) model.Role {
	return model.Role(c.GetString(CtxRole))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return token
}

// RequireUser verifies the bearer credential and loads the caller's
// memberships. A missing or invalid token fails UNAUTHORIZED.
func RequireUser(issuer *auth.TokenIssuer, s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			Abort(c, apperr.Unauthorized("missing bearer token"))
			return
		}
		claims, err := issuer.Verify(token)
		if err != nil {
			Abort(c, apperr.Unauthorized("invalid or expired token"))
			return
		}
		memberships, err := s.ListMemberships(c.Request.Context(), claims.UserID)
		if err != nil {
			Abort(c, apperr.Internal("failed to load memberships"))
			return
		}
		c.Set(CtxPrincipal, &Principal{
			UserID:      claims.UserID,
			Email:       claims.Email,
			Memberships: memberships,
		})
		c.Next()
	}
}

// RequireDevice verifies a "<deviceId>:<hex digest>" MAC token against
// the deployment device secret and sets the device identity.
func RequireDevice(deviceSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			Abort(c, apperr.Unauthorized("missing device token"))
			return
		}
		deviceID, err := auth.VerifyDeviceToken(deviceSecret, token)
		if err != nil {
			Abort(c, apperr.Unauthorized("invalid device token"))
			return
		}
		c.Set(CtxDeviceID, deviceID)
		c.Next()
	}
}

// RequireSelfDevice additionally checks that the device id in the path
// matches the token's identity.
func RequireSelfDevice(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param(param) != GetDeviceID(c) {
			Abort(c, apperr.Forbidden("device id does not match credential"))
			return
		}
		c.Next()
	}
}
