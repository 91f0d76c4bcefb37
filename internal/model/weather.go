package model

import "time"

// WeatherData is one day of weather observed for a site, pulled from the
// configured provider. Date is the UTC day in YYYY-MM-DD form.
type WeatherData struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	SiteID string `gorm:"size:36;not null;uniqueIndex:idx_weather_site_date" json:"siteId"`
	Date   string `gorm:"size:10;not null;uniqueIndex:idx_weather_site_date" json:"date"`

	TempMinC     *float64 `json:"tempMinC"`
	TempMaxC     *float64 `json:"tempMaxC"`
	IrradianceWh *float64 `json:"irradianceWh"`
	CloudPct     *float64 `json:"cloudPct"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Site Site `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"-"`
}

// SimAction is a log row for a SIM-carrier action requested by an operator.
type SimAction struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string    `gorm:"size:36;not null;index" json:"tenantId"`
	ICCID       string    `gorm:"size:32;not null;index" json:"iccid"`
	Action      string    `gorm:"size:32;not null" json:"action"`
	Status      string    `gorm:"size:32;not null" json:"status"`
	RequestedBy string    `gorm:"size:36;not null" json:"requestedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
