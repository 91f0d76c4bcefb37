package integrations

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// WeatherPuller stores one weather row per (site, day) for every site
// with known coordinates. Upsert-keyed, so reruns are idempotent.
type WeatherPuller struct {
	store    store.Store
	provider WeatherProvider
	logger   *zap.Logger
}

func NewWeatherPuller(s store.Store, p WeatherProvider, logger *zap.Logger) *WeatherPuller {
	return &WeatherPuller{store: s, provider: p, logger: logger}
}

// PullForDay fetches and stores weather for the given UTC day.
func (w *WeatherPuller) PullForDay(ctx context.Context, day time.Time) (int, error) {
	day = day.UTC().Truncate(24 * time.Hour)
	date := day.Format("2006-01-02")

	sites, err := w.store.ListSitesWithCoords(ctx)
	if err != nil {
		return 0, err
	}

	stored := 0
	for i := range sites {
		site := &sites[i]
		wx, err := w.provider.DailyForecast(ctx, *site.Latitude, *site.Longitude, day)
		if err != nil {
			w.logger.Error("weather pull failed",
				zap.String("siteId", site.ID), zap.Error(err))
			continue
		}
		row := &model.WeatherData{
			SiteID:       site.ID,
			Date:         date,
			TempMinC:     &wx.TempMinC,
			TempMaxC:     &wx.TempMaxC,
			IrradianceWh: &wx.IrradianceWh,
			CloudPct:     &wx.CloudPct,
		}
		if err := w.store.UpsertWeatherData(ctx, row); err != nil {
			w.logger.Error("weather upsert failed",
				zap.String("siteId", site.ID), zap.Error(err))
			continue
		}
		stored++
	}
	return stored, nil
}
