// Package sched drives the periodic background work: alert sweeps,
// notification drains, daily rollups and the weather pull. Each loop is
// a plain ticker bound to the process context.
package sched

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solar-fleet-backend/config"
	"solar-fleet-backend/internal/alert"
	"solar-fleet-backend/internal/integrations"
	"solar-fleet-backend/internal/notify"
	"solar-fleet-backend/internal/rollup"
)

const drainInterval = time.Minute

// Scheduler owns the background loops.
type Scheduler struct {
	cfg        *config.Config
	evaluator  *alert.Evaluator
	dispatcher *notify.Dispatcher
	roller     *rollup.Roller
	weather    *integrations.WeatherPuller
	logger     *zap.Logger
}

func New(
	cfg *config.Config,
	evaluator *alert.Evaluator,
	dispatcher *notify.Dispatcher,
	roller *rollup.Roller,
	weather *integrations.WeatherPuller,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		roller:     roller,
		weather:    weather,
		logger:     logger,
	}
}

// Run starts all loops and blocks until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	go s.sweepLoop(ctx)
	go s.drainLoop(ctx)
	go s.dailyLoop(ctx, s.cfg.Jobs.RollupHourUTC, "rollup", s.runRollup)
	go s.dailyLoop(ctx, s.cfg.Jobs.WeatherHourUTC, "weather", s.runWeather)
	<-ctx.Done()
	s.logger.Info("scheduler shutting down")
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.Alerts.EvalIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			opened := s.evaluator.Sweep(ctx)
			if opened > 0 {
				s.logger.Info("alert sweep finished", zap.Int("opened", opened))
			}
		}
	}
}

func (s *Scheduler) drainLoop(ctx context.Context) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, failed := s.dispatcher.Drain(ctx)
			if sent > 0 || failed > 0 {
				s.logger.Info("notification drain finished",
					zap.Int("sent", sent), zap.Int("failed", failed))
			}
		}
	}
}

// dailyLoop fires fn once per UTC day at the given hour.
func (s *Scheduler) dailyLoop(ctx context.Context, hour int, name string, fn func(context.Context)) {
	for {
		timer := time.NewTimer(time.Until(nextRunAt(time.Now().UTC(), hour)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.logger.Info("daily job starting", zap.String("job", name))
			fn(ctx)
		}
	}
}

// nextRunAt returns the next occurrence of hour:00 UTC strictly after now.
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runRollup aggregates the previous UTC day.
func (s *Scheduler) runRollup(ctx context.Context) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	n, err := s.roller.RunForDay(ctx, dayStart)
	if err != nil {
		s.logger.Error("rollup run failed", zap.Error(err))
		return
	}
	s.logger.Info("rollup run finished",
		zap.String("day", dayStart.Format("2006-01-02")), zap.Int("devices", n))
}

// runWeather pulls today's weather for every site with coordinates.
func (s *Scheduler) runWeather(ctx context.Context) {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.weather.PullForDay(ctx, day)
	if err != nil {
		s.logger.Error("weather pull failed", zap.Error(err))
		return
	}
	s.logger.Info("weather pull finished",
		zap.String("day", day.Format("2006-01-02")), zap.Int("sites", n))
}
