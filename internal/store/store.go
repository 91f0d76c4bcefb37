// Package store is the typed, tenant-filtered persistence layer. Every
// read of tenant-scoped entities takes the caller's active tenant id;
// that filter is what underwrites multi-tenant isolation.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"solar-fleet-backend/internal/model"
)

// DeviceFilter narrows device listings.
type DeviceFilter struct {
	Status []model.DeviceStatus
	SiteID string
	Search string
	Limit  int
	Offset int
}

// AlertEventFilter narrows alert event listings.
type AlertEventFilter struct {
	Status   []model.AlertEventStatus
	Severity []model.Severity
	DeviceID string
	Limit    int
	Offset   int
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
	Offset     int
}

// BBox is a lon/lat bounding box for map queries.
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	// Transaction runs fn against a transactional view of the store.
	Transaction(ctx context.Context, fn func(Store) error) error

	// Tenants
	CreateTenant(ctx context.Context, t *model.Tenant) error
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	ListTenantsByIDs(ctx context.Context, ids []string) ([]model.Tenant, error)

	// Users and memberships
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SaveUser(ctx context.Context, u *model.User) error
	CreateMembership(ctx context.Context, m *model.Membership) error
	GetMembership(ctx context.Context, userID, tenantID string) (*model.Membership, error)
	ListMemberships(ctx context.Context, userID string) ([]model.Membership, error)
	SaveMembership(ctx context.Context, m *model.Membership) error

	// Sites
	CreateSite(ctx context.Context, s *model.Site) error
	GetSite(ctx context.Context, tenantID, id string) (*model.Site, error)
	GetSiteByID(ctx context.Context, id string) (*model.Site, error)
	ListSites(ctx context.Context, tenantID string) ([]model.Site, error)
	SaveSite(ctx context.Context, s *model.Site) error
	ListSitesWithCoords(ctx context.Context) ([]model.Site, error)

	// Devices
	CreateDevice(ctx context.Context, d *model.Device) error
	CreateDeviceSecret(ctx context.Context, s *model.DeviceSecret) error
	GetDevice(ctx context.Context, tenantID, id string) (*model.Device, error)
	GetDeviceByID(ctx context.Context, id string) (*model.Device, error)
	ListDevices(ctx context.Context, tenantID string, f DeviceFilter) ([]model.Device, int64, error)
	ListDevicesInBBox(ctx context.Context, tenantID string, box BBox) ([]model.Device, error)
	ListDevicesByStatus(ctx context.Context, tenantID string, statuses []model.DeviceStatus) ([]model.Device, error)
	SaveDevice(ctx context.Context, d *model.Device) error
	CountDevicesByStatus(ctx context.Context, tenantID string) (map[model.DeviceStatus]int64, error)
	DeviceOwnedOnSite(ctx context.Context, siteID, userID string) (bool, error)

	// Telemetry and twin
	CreateTelemetry(ctx context.Context, t *model.Telemetry) error
	GetTwin(ctx context.Context, deviceID string) (*model.DeviceTwin, error)
	SaveTwin(ctx context.Context, tw *model.DeviceTwin) error
	RecentTelemetrySince(ctx context.Context, deviceID string, since time.Time, limit int) ([]model.Telemetry, error)
	LastTelemetry(ctx context.Context, deviceID string, n int) ([]model.Telemetry, error)
	TelemetryForWindow(ctx context.Context, deviceID string, start, end time.Time) ([]model.Telemetry, error)

	// Commands
	CreateCommand(ctx context.Context, c *model.Command) error
	GetCommandForDevice(ctx context.Context, deviceID, cmdID string) (*model.Command, error)
	PendingCommandsMarkDelivered(ctx context.Context, deviceID string, now time.Time) ([]model.Command, error)
	SaveCommand(ctx context.Context, c *model.Command) error

	// Alert rules and events
	CreateAlertRule(ctx context.Context, r *model.AlertRule) error
	ListAlertRules(ctx context.Context, tenantID string) ([]model.AlertRule, error)
	ListEnabledAlertRules(ctx context.Context) ([]model.AlertRule, error)
	CreateAlertEvent(ctx context.Context, e *model.AlertEvent) error
	GetAlertEvent(ctx context.Context, tenantID, id string) (*model.AlertEvent, error)
	ListAlertEvents(ctx context.Context, tenantID string, f AlertEventFilter) ([]model.AlertEvent, int64, error)
	HasLiveAlert(ctx context.Context, dedupeKey string) (bool, error)
	SaveAlertEvent(ctx context.Context, e *model.AlertEvent) error

	// Notification channels and events
	CreateNotificationChannel(ctx context.Context, c *model.NotificationChannel) error
	ListNotificationChannels(ctx context.Context, tenantID string) ([]model.NotificationChannel, error)
	ListEnabledChannels(ctx context.Context, tenantID string) ([]model.NotificationChannel, error)
	CreateNotificationEvent(ctx context.Context, e *model.NotificationEvent) error
	ListQueuedNotifications(ctx context.Context, limit int) ([]model.NotificationEvent, error)
	SaveNotificationEvent(ctx context.Context, e *model.NotificationEvent) error

	// Firmware and OTA jobs
	CreateFirmware(ctx context.Context, f *model.FirmwarePackage) error
	GetFirmware(ctx context.Context, id string) (*model.FirmwarePackage, error)
	ListFirmware(ctx context.Context) ([]model.FirmwarePackage, error)
	CreateOtaJob(ctx context.Context, j *model.OtaJob) error
	GetOtaJob(ctx context.Context, tenantID, id string) (*model.OtaJob, error)
	GetOtaJobByID(ctx context.Context, id string) (*model.OtaJob, error)
	ListOtaJobs(ctx context.Context, tenantID string) ([]model.OtaJob, error)
	PendingOtaJobForDevice(ctx context.Context, d *model.Device) (*model.OtaJob, error)
	SaveOtaJob(ctx context.Context, j *model.OtaJob) error

	// Entitlements
	UpsertEntitlement(ctx context.Context, e *model.Entitlement) error
	GetEntitlementRow(ctx context.Context, tenantID string, key model.EntitlementKey, deviceID string) (*model.Entitlement, error)
	ListEntitlements(ctx context.Context, tenantID string) ([]model.Entitlement, error)

	// Rollups
	UpsertDailyRollup(ctx context.Context, r *model.DailyRollup) error
	GetDailyRollup(ctx context.Context, deviceID, dayDate string) (*model.DailyRollup, error)
	SumRollupsForDay(ctx context.Context, tenantID, dayDate string) (energyKwh, waterLiters float64, err error)

	// Audit
	CreateAuditLog(ctx context.Context, a *model.AuditLog) error
	ListAuditLogs(ctx context.Context, tenantID string, f AuditFilter) ([]model.AuditLog, error)
	LastAuditByAction(ctx context.Context, action, entityID string) (*model.AuditLog, error)

	// Weather and SIM
	UpsertWeatherData(ctx context.Context, w *model.WeatherData) error
	CreateSimAction(ctx context.Context, a *model.SimAction) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
