package model

import "time"

// LocationSource records how a location fix was obtained.
type LocationSource string

const (
	LocationSourceMobileGPS LocationSource = "MOBILE_GPS"
	LocationSourceEdgeGNSS  LocationSource = "EDGE_GNSS"
	LocationSourceEdgeCell  LocationSource = "EDGE_CELL"
	LocationSourceManual    LocationSource = "MANUAL"
)

// Site is a physical location under a tenant.
type Site struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	TenantID string `gorm:"size:36;not null;index" json:"tenantId"`
	Name     string `gorm:"size:256;not null" json:"name"`

	AddressLine string `gorm:"size:512" json:"addressLine,omitempty"`
	City        string `gorm:"size:128" json:"city,omitempty"`
	PostalCode  string `gorm:"size:32" json:"postalCode,omitempty"`
	Country     string `gorm:"size:64" json:"country,omitempty"`

	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	LocationSource    *LocationSource `gorm:"size:32" json:"locationSource,omitempty"`
	LocationAccuracyM *float64        `json:"locationAccuracyM,omitempty"`
	LocationConfidence *float64       `json:"locationConfidence,omitempty"`
	LocationUpdatedAt *time.Time      `json:"locationUpdatedAt,omitempty"`
	LocationUpdatedBy *string         `gorm:"size:36" json:"locationUpdatedBy,omitempty"`

	// LocationLock guards the site coordinates against device-driven writes.
	LocationLock bool `gorm:"not null;default:false" json:"locationLock"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}
