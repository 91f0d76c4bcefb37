package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
)

// NewRouter creates and configures the Gin router around a wired Handler.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(
		rate.Limit(h.cfg.Server.RateLimitPerSec), h.cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(h.cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 5*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	userAuth := mw.RequireUser(h.issuer, h.store)
	deviceAuth := mw.RequireDevice(h.cfg.Auth.DeviceHMACSecret)
	tenantCtx := mw.ResolveTenant()

	adminRoles := mw.RequireRole(model.RoleTenantAdmin)
	fieldRoles := mw.RequireRole(model.RoleTenantAdmin, model.RoleInstaller)
	memberRoles := mw.RequireRole(
		model.RoleTenantAdmin, model.RoleInstaller,
		model.RoleSupportAgent, model.RoleEndUser)
	// An empty role set admits only PLATFORM_ADMIN.
	platformOnly := mw.RequireRole()

	r.GET("/health", h.Health)
	r.GET("/api/health", h.Health)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Public auth endpoints
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	// Device-credential endpoints
	device := api.Group("")
	device.Use(deviceAuth)
	{
		device.POST("/ingest/telemetry", h.IngestTelemetry)
		device.GET("/devices/:deviceId/commands/pending", mw.RequireSelfDevice("deviceId"), h.PendingCommands)
		device.POST("/devices/:deviceId/commands/:commandId/ack", mw.RequireSelfDevice("deviceId"), h.AckCommand)
		device.GET("/devices/:deviceId/ota/pending", mw.RequireSelfDevice("deviceId"), h.PendingOta)
		device.POST("/devices/:deviceId/ota/report", mw.RequireSelfDevice("deviceId"), h.ReportOta)
	}

	// User endpoints without a tenant scope
	api.GET("/me", userAuth, h.Me)
	api.POST("/tenants", userAuth, tenantCtx, platformOnly, h.CreateTenant)
	api.GET("/tenants", userAuth, h.ListTenants)
	api.POST("/firmware", userAuth, tenantCtx, platformOnly, h.CreateFirmware)
	api.GET("/firmware", userAuth, h.ListFirmware)

	// Tenant-scoped surface. Mounted twice: under /tenants/:tenantId, and
	// flat, where the tenant comes from the x-tenant-id header or the
	// tenantId query value.
	mount := func(g *gin.RouterGroup) {
		g.GET("/dashboard/summary", memberRoles, caching, h.DashboardSummary)

		g.POST("/users/invite", adminRoles, h.InviteUser)
		g.PATCH("/users/:userId/role", adminRoles, h.ChangeRole)

		g.POST("/sites", fieldRoles, h.CreateSite)
		g.GET("/sites", memberRoles, h.ListSites)
		g.GET("/sites/:siteId", memberRoles, h.GetSite)
		g.PATCH("/sites/:siteId/location", memberRoles, h.PatchSiteLocation)

		g.POST("/devices", fieldRoles, h.CreateDevice)
		g.POST("/devices/bulk", fieldRoles, h.ImportDevices)
		g.GET("/devices", memberRoles, h.ListDevices)
		g.GET("/devices/:deviceId", memberRoles, h.GetDevice)
		g.PATCH("/devices/:deviceId", fieldRoles, h.PatchDevice)
		g.GET("/devices/:deviceId/twin", memberRoles, h.GetDeviceTwin)
		g.GET("/devices/:deviceId/telemetry", memberRoles, h.GetDeviceTelemetry)
		g.GET("/devices/:deviceId/rollup", memberRoles, h.GetDeviceRollup)
		g.POST("/devices/:deviceId/commands", memberRoles, h.CreateCommand)

		g.GET("/map/devices", memberRoles, caching, h.MapDevices)

		g.POST("/alert-rules", adminRoles, h.CreateAlertRule)
		g.GET("/alert-rules", memberRoles, h.ListAlertRules)
		g.GET("/alerts", memberRoles, h.ListAlertEvents)
		g.POST("/alerts/:alertId/ack", memberRoles, h.AckAlertEvent)
		g.POST("/alerts/:alertId/close", memberRoles, h.CloseAlertEvent)

		g.POST("/notification-channels", adminRoles, h.CreateNotificationChannel)
		g.GET("/notification-channels", adminRoles, h.ListNotificationChannels)

		g.POST("/ota/jobs", adminRoles, h.CreateOtaJob)
		g.GET("/ota/jobs", memberRoles, h.ListOtaJobs)
		g.POST("/ota/jobs/:jobId/cancel", adminRoles, h.CancelOtaJob)

		g.PUT("/entitlements", adminRoles, h.PutEntitlement)
		g.GET("/entitlements", adminRoles, h.ListEntitlements)
		g.GET("/entitlements/check", memberRoles, h.CheckEntitlement)

		g.GET("/audit", adminRoles, h.ListAuditLogs)

		g.POST("/sim/:iccid/actions", adminRoles, h.SimAction)
	}

	tenant := api.Group("/tenants/:tenantId")
	tenant.Use(userAuth, tenantCtx)
	tenant.GET("", memberRoles, h.GetTenant)
	mount(tenant)

	flat := api.Group("")
	flat.Use(userAuth, tenantCtx)
	mount(flat)

	return r
}
