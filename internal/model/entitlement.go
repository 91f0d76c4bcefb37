package model

import "time"

// EntitlementScope selects whether a flag applies to a whole tenant or to
// a single device.
type EntitlementScope string

const (
	EntitlementScopeTenant EntitlementScope = "TENANT"
	EntitlementScopeDevice EntitlementScope = "DEVICE"
)

// EntitlementKey enumerates the gated features.
type EntitlementKey string

const (
	EntitlementBasicRemoteBoost     EntitlementKey = "BASIC_REMOTE_BOOST"
	EntitlementSmartHomeIntegration EntitlementKey = "SMART_HOME_INTEGRATION"
)

// Entitlement is a feature flag resolved with device-over-tenant precedence.
// DeviceID is populated iff Scope is DEVICE; the empty string stands in for
// the tenant-scope row inside the composite unique index.
type Entitlement struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string           `gorm:"size:36;not null;uniqueIndex:idx_entitlement_tenant_key_device" json:"tenantId"`
	Scope     EntitlementScope `gorm:"size:16;not null" json:"scope"`
	Key       EntitlementKey   `gorm:"size:64;not null;uniqueIndex:idx_entitlement_tenant_key_device" json:"key"`
	DeviceID  string           `gorm:"size:36;not null;default:'';uniqueIndex:idx_entitlement_tenant_key_device" json:"deviceId,omitempty"`
	Enabled   bool             `gorm:"not null" json:"enabled"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}
