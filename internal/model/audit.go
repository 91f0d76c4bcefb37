package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActorType identifies who caused an audited state transition.
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorDevice ActorType = "DEVICE"
	ActorSystem ActorType = "SYSTEM"
)

// Audit action codes emitted by the core.
const (
	AuditCommandCreated            = "COMMAND_CREATED"
	AuditCommandAcked              = "COMMAND_ACKED"
	AuditCommandFailed             = "COMMAND_FAILED"
	AuditSiteLocationSetFromDevice = "SITE_LOCATION_SET_FROM_DEVICE"
	AuditDeviceGeoLargeJump        = "DEVICE_GEO_LARGE_JUMP"
	AuditDeviceCreated             = "DEVICE_CREATED"
	AuditDeviceUpdated             = "DEVICE_UPDATED"
	AuditSiteLocationUpdated       = "SITE_LOCATION_UPDATED"
	AuditAlertOpened               = "ALERT_OPENED"
	AuditOtaJobScheduled           = "OTA_JOB_SCHEDULED"
	AuditOtaJobCanceled            = "OTA_JOB_CANCELED"
	AuditSimAction                 = "SIM_ACTION"
	AuditUserInvited               = "USER_INVITED"
	AuditRoleChanged               = "ROLE_CHANGED"
	AuditEntitlementSet            = "ENTITLEMENT_SET"
)

// AuditLog is an append-only record of a significant state transition.
// Rows are never updated or deleted.
type AuditLog struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID    *string           `gorm:"size:36;index" json:"tenantId,omitempty"`
	ActorUserID *string           `gorm:"size:36" json:"actorUserId,omitempty"`
	ActorType   ActorType         `gorm:"size:16;not null" json:"actorType"`
	Action      string            `gorm:"size:64;not null;index" json:"action"`
	EntityType  string            `gorm:"size:64;not null" json:"entityType"`
	EntityID    string            `gorm:"size:64;not null;index" json:"entityId"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	CreatedAt   time.Time         `json:"createdAt"`
}
