package integrations

import (
	"context"
	"fmt"
	"time"
)

// StubWeather returns a fixed mild day; deployments swap in a real
// provider behind the same interface.
type StubWeather struct{}

func (StubWeather) DailyForecast(ctx context.Context, lat, lon float64, day time.Time) (*DailyWeather, error) {
	return &DailyWeather{TempMinC: 12, TempMaxC: 24, IrradianceWh: 5200, CloudPct: 20}, nil
}

// StubGeocoder resolves every coordinate to an empty address.
type StubGeocoder struct{}

func (StubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	return &Address{}, nil
}

// StubSim acknowledges every known action without carrier contact.
type StubSim struct{}

func (StubSim) Execute(ctx context.Context, iccid, action string) (*SimActionResult, error) {
	switch action {
	case "ACTIVATE", "DEACTIVATE", "REFRESH":
		return &SimActionResult{ICCID: iccid, Action: action, Status: "ACCEPTED"}, nil
	default:
		return nil, fmt.Errorf("unsupported sim action %q", action)
	}
}
