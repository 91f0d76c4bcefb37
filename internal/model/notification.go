package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChannelType enumerates the outbound notification transports.
type ChannelType string

const (
	ChannelEmail   ChannelType = "EMAIL"
	ChannelSMS     ChannelType = "SMS"
	ChannelWebhook ChannelType = "WEBHOOK"
)

// NotificationChannel is a tenant-scoped delivery endpoint.
type NotificationChannel struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string            `gorm:"size:36;not null;index" json:"tenantId"`
	Type      ChannelType       `gorm:"size:16;not null" json:"type"`
	Config    datatypes.JSONMap `json:"config"`
	Enabled   bool              `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationStatus is the outbound message state.
type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "QUEUED"
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// NotificationEvent is one queued outbound message.
type NotificationEvent struct {
	ID           string             `gorm:"primaryKey;size:36" json:"id"`
	TenantID     string             `gorm:"size:36;not null;index" json:"tenantId"`
	ChannelID    string             `gorm:"size:36;not null;index" json:"channelId"`
	AlertEventID *string            `gorm:"size:36" json:"alertEventId,omitempty"`
	Status       NotificationStatus `gorm:"size:16;not null;default:QUEUED;index" json:"status"`
	Payload      datatypes.JSONMap  `json:"payload"`
	SentAt       *time.Time         `json:"sentAt"`
	ErrorMsg     *string            `gorm:"size:1024" json:"errorMsg,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`

	Tenant  Tenant              `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Channel NotificationChannel `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE" json:"-"`
}
