package model

import "time"

// DailyRollup is the per-device per-calendar-day aggregate computed from
// raw telemetry. DayDate is the UTC day in YYYY-MM-DD form.
type DailyRollup struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	DeviceID string `gorm:"size:36;not null;uniqueIndex:idx_rollup_device_day" json:"deviceId"`
	DayDate  string `gorm:"size:10;not null;uniqueIndex:idx_rollup_device_day" json:"dayDate"`

	EnergyKwh       float64  `json:"energyKwh"`
	WaterLiters     float64  `json:"waterLiters"`
	HeaterOnMinutes int      `json:"heaterOnMinutes"`
	TankTempMin     *float64 `json:"tankTempMin"`
	TankTempMax     *float64 `json:"tankTempMax"`
	AmbientTempAvg  *float64 `json:"ambientTempAvg"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}
