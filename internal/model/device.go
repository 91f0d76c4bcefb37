package model

import (
	"time"

	"gorm.io/datatypes"
)

// DeviceStatus is the device lifecycle state.
type DeviceStatus string

const (
	DeviceStatusProvisioned DeviceStatus = "PROVISIONED"
	DeviceStatusInstalled   DeviceStatus = "INSTALLED"
	DeviceStatusActive      DeviceStatus = "ACTIVE"
	DeviceStatusSuspended   DeviceStatus = "SUSPENDED"
	DeviceStatusRetired     DeviceStatus = "RETIRED"
)

// Device is a managed solar-water-heater unit under a tenant.
type Device struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID     string            `gorm:"size:36;not null;index;uniqueIndex:idx_device_tenant_serial" json:"tenantId"`
	SiteID       *string           `gorm:"size:36;index" json:"siteId"`
	OwnerUserID  *string           `gorm:"size:36;index" json:"ownerUserId"`
	SerialNumber string            `gorm:"size:128;not null;uniqueIndex:idx_device_tenant_serial" json:"serialNumber"`
	Model        string            `gorm:"size:128" json:"model"`
	Name         string            `gorm:"size:256" json:"name"`
	Notes        string            `gorm:"size:2048" json:"notes,omitempty"`
	Tags         datatypes.JSONMap `json:"tags"`
	Status       DeviceStatus      `gorm:"size:32;not null;default:PROVISIONED;index" json:"status"`

	LastSeenAt      *time.Time `json:"lastSeenAt"`
	FirmwareVersion string     `gorm:"size:64" json:"firmwareVersion,omitempty"`
	SimICCID        *string    `gorm:"size:32" json:"simIccid,omitempty"`

	// Device-reported location, distinct from the site's reconciled one.
	ReportedLatitude  *float64        `json:"reportedLatitude,omitempty"`
	ReportedLongitude *float64        `json:"reportedLongitude,omitempty"`
	ReportedGeoSource *LocationSource `gorm:"size:32" json:"reportedGeoSource,omitempty"`
	ReportedAccuracyM *float64        `json:"reportedAccuracyM,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Site   *Site  `gorm:"foreignKey:SiteID" json:"-"`
}

// DeviceSecret pins a device identity to the deployment-wide HMAC secret.
// The stored digest is hex(HMAC-SHA256(secret, deviceID)).
type DeviceSecret struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	DeviceID  string    `gorm:"size:36;not null;uniqueIndex" json:"deviceId"`
	MACDigest string    `gorm:"size:64;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`

	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}
