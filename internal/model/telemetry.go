package model

import (
	"time"

	"gorm.io/datatypes"
)

// Telemetry is a single time-point reading reported by a device.
// Metrics is a schemaless bag of name -> number|bool|string.
type Telemetry struct {
	ID       string            `gorm:"primaryKey;size:36" json:"id"`
	DeviceID string            `gorm:"size:36;not null;index:idx_telemetry_device_ts" json:"deviceId"`
	Ts       time.Time         `gorm:"not null;index:idx_telemetry_device_ts" json:"ts"`
	Metrics  datatypes.JSONMap `json:"metrics"`

	GeoLatitude  *float64        `json:"geoLatitude,omitempty"`
	GeoLongitude *float64        `json:"geoLongitude,omitempty"`
	GeoAccuracyM *float64        `json:"geoAccuracyM,omitempty"`
	GeoSource    *LocationSource `gorm:"size:32" json:"geoSource,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}

// DeviceTwin is the server-side shadow of a device's last-known state.
// One row per device; DerivedState carries both last_<metric> mirrors and
// the distinguished fields recomputed on every telemetry write.
type DeviceTwin struct {
	DeviceID     string            `gorm:"primaryKey;size:36" json:"deviceId"`
	LastTs       *time.Time        `json:"lastTs"`
	DerivedState datatypes.JSONMap `json:"derivedState"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`

	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}
