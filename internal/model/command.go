package model

import (
	"time"

	"gorm.io/datatypes"
)

// CommandType enumerates the instructions a device understands.
type CommandType string

const (
	CommandTypeRemoteBoostSet CommandType = "REMOTE_BOOST_SET"
	CommandTypeSetSchedule    CommandType = "SET_SCHEDULE"
	CommandTypeSetConfig      CommandType = "SET_CONFIG"
)

// CommandStatus is the per-command state machine position.
//
//	QUEUED -> DELIVERED -> ACKED | FAILED
//
// EXPIRED is reserved for an out-of-process reaper; no transition here
// produces it.
type CommandStatus string

const (
	CommandStatusQueued    CommandStatus = "QUEUED"
	CommandStatusDelivered CommandStatus = "DELIVERED"
	CommandStatusAcked     CommandStatus = "ACKED"
	CommandStatusFailed    CommandStatus = "FAILED"
	CommandStatusExpired   CommandStatus = "EXPIRED"
)

// Command is a queued instruction to a device.
type Command struct {
	ID       string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID string            `gorm:"size:36;not null;index" json:"tenantId"`
	DeviceID string            `gorm:"size:36;not null;index" json:"deviceId"`
	Type     CommandType       `gorm:"size:32;not null" json:"type"`
	Payload  datatypes.JSONMap `json:"payload"`
	Status   CommandStatus     `gorm:"size:32;not null;default:QUEUED;index" json:"status"`

	RequestedByUserID string     `gorm:"size:36;not null" json:"requestedByUserId"`
	RequestedAt       time.Time  `gorm:"not null;index" json:"requestedAt"`
	DeliveredAt       *time.Time `json:"deliveredAt"`
	AckAt             *time.Time `json:"ackAt"`
	ErrorMsg          *string    `gorm:"size:1024" json:"errorMsg,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}
