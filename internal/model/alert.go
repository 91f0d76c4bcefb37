package model

import (
	"time"

	"gorm.io/datatypes"
)

// AlertRuleType enumerates the closed set of rule predicates.
type AlertRuleType string

const (
	AlertRuleNoTelemetry      AlertRuleType = "NO_TELEMETRY"
	AlertRuleOverTemp         AlertRuleType = "OVER_TEMP"
	AlertRulePossibleLeak     AlertRuleType = "POSSIBLE_LEAK"
	AlertRuleSensorOutOfRange AlertRuleType = "SENSOR_OUT_OF_RANGE"
)

// Severity ranks an alert.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// AlertRule is a tenant-scoped rule swept periodically over the fleet.
type AlertRule struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string            `gorm:"size:36;not null;index" json:"tenantId"`
	Name      string            `gorm:"size:256;not null" json:"name"`
	Enabled   bool              `gorm:"not null;default:true" json:"enabled"`
	Type      AlertRuleType     `gorm:"size:32;not null" json:"type"`
	Params    datatypes.JSONMap `json:"params"`
	Severity  Severity          `gorm:"size:16;not null;default:WARNING" json:"severity"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}

// AlertEventStatus is the alert instance lifecycle state.
type AlertEventStatus string

const (
	AlertEventOpen         AlertEventStatus = "OPEN"
	AlertEventAcknowledged AlertEventStatus = "ACKNOWLEDGED"
	AlertEventClosed       AlertEventStatus = "CLOSED"
)

// AlertEvent is an alert instance opened by the evaluator. DedupeKey is
// "<deviceID>:<ruleID>" under a unique index while the event is open or
// acknowledged; closing an event clears the key so a later sweep can open
// a fresh one.
type AlertEvent struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string            `gorm:"size:36;not null;index" json:"tenantId"`
	DeviceID  string            `gorm:"size:36;not null;index" json:"deviceId"`
	RuleID    string            `gorm:"size:36;not null;index" json:"ruleId"`
	Severity  Severity          `gorm:"size:16;not null" json:"severity"`
	Status    AlertEventStatus  `gorm:"size:16;not null;default:OPEN;index" json:"status"`
	DedupeKey *string           `gorm:"size:80;uniqueIndex" json:"dedupeKey,omitempty"`
	Details   datatypes.JSONMap `json:"details"`

	OpenedAt       time.Time  `gorm:"not null" json:"openedAt"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt"`
	ClosedAt       *time.Time `json:"closedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tenant Tenant    `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Device Device    `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
	Rule   AlertRule `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"-"`
}

// DedupeKeyFor builds the per-(device, rule) dedupe key.
func DedupeKeyFor(deviceID, ruleID string) string {
	return deviceID + ":" + ruleID
}
