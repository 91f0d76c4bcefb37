package model

import (
	"time"

	"gorm.io/datatypes"
)

// TenantType classifies the organization operating under a tenant.
type TenantType string

const (
	TenantTypeManufacturer    TenantType = "MANUFACTURER"
	TenantTypeRetailer        TenantType = "RETAILER"
	TenantTypeInstaller       TenantType = "INSTALLER"
	TenantTypePropertyManager TenantType = "PROPERTY_MANAGER"
)

// TenantStatus is the tenant lifecycle state.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusArchived  TenantStatus = "ARCHIVED"
)

// Tenant is the organizational boundary; all non-platform data is scoped by it.
type Tenant struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	Name      string            `gorm:"size:256;not null" json:"name"`
	Type      TenantType        `gorm:"size:32;not null" json:"type"`
	Status    TenantStatus      `gorm:"size:32;not null;default:ACTIVE" json:"status"`
	Settings  datatypes.JSONMap `json:"settings"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
