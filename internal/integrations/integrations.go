// Package integrations holds the narrow interfaces to external providers
// (weather, geocoding, SIM carrier) plus stub implementations used by the
// reference deployment. Instances are process-wide singletons and must be
// safe for concurrent use.
package integrations

import (
	"context"
	"time"
)

// DailyWeather is one day of weather for a coordinate.
type DailyWeather struct {
	TempMinC     float64
	TempMaxC     float64
	IrradianceWh float64
	CloudPct     float64
}

// WeatherProvider fetches daily weather for a coordinate.
type WeatherProvider interface {
	DailyForecast(ctx context.Context, lat, lon float64, day time.Time) (*DailyWeather, error)
}

// Address is a resolved postal address.
type Address struct {
	Line       string
	City       string
	PostalCode string
	Country    string
}

// Geocoder resolves coordinates to postal addresses.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

// SimActionResult reports the carrier's answer to an action request.
type SimActionResult struct {
	ICCID  string
	Action string
	Status string
}

// SimProvider executes carrier-side actions against a SIM.
type SimProvider interface {
	Execute(ctx context.Context, iccid, action string) (*SimActionResult, error)
}
