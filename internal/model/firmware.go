package model

import (
	"time"

	"gorm.io/datatypes"
)

// FirmwarePackage is a registered firmware build. Versions are globally
// unique across tenants.
type FirmwarePackage struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Version      string    `gorm:"size:64;not null;uniqueIndex" json:"version"`
	DownloadURL  string    `gorm:"size:1024;not null" json:"downloadUrl"`
	Checksum     string    `gorm:"size:128" json:"checksum"`
	ReleaseNotes string    `gorm:"size:4096" json:"releaseNotes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OtaTargetType selects whether a job targets one device or a group filter.
type OtaTargetType string

const (
	OtaTargetDevice OtaTargetType = "DEVICE"
	OtaTargetGroup  OtaTargetType = "GROUP"
)

// OtaJobStatus is the rollout state.
type OtaJobStatus string

const (
	OtaJobStatusScheduled  OtaJobStatus = "SCHEDULED"
	OtaJobStatusInProgress OtaJobStatus = "IN_PROGRESS"
	OtaJobStatusSuccess    OtaJobStatus = "SUCCESS"
	OtaJobStatusFailed     OtaJobStatus = "FAILED"
	OtaJobStatusCanceled   OtaJobStatus = "CANCELED"
)

// OtaJob is a scheduled firmware rollout.
type OtaJob struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string            `gorm:"size:36;not null;index" json:"tenantId"`
	TargetType  OtaTargetType     `gorm:"size:16;not null" json:"targetType"`
	DeviceID    *string           `gorm:"size:36;index" json:"deviceId,omitempty"`
	GroupFilter datatypes.JSONMap `json:"groupFilter,omitempty"`
	FirmwareID  string            `gorm:"size:36;not null" json:"firmwareId"`
	Status      OtaJobStatus      `gorm:"size:32;not null;default:SCHEDULED;index" json:"status"`

	ScheduledAt time.Time         `gorm:"not null;index" json:"scheduledAt"`
	StartedAt   *time.Time        `json:"startedAt"`
	FinishedAt  *time.Time        `json:"finishedAt"`
	Progress    datatypes.JSONMap `json:"progress,omitempty"`
	ErrorMsg    *string           `gorm:"size:1024" json:"errorMsg,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tenant   Tenant          `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Firmware FirmwarePackage `gorm:"foreignKey:FirmwareID" json:"-"`
}
