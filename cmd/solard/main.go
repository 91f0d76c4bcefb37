package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solar-fleet-backend/config"
	"solar-fleet-backend/internal/alert"
	"solar-fleet-backend/internal/api"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/db"
	"solar-fleet-backend/internal/entitlement"
	"solar-fleet-backend/internal/ingest"
	"solar-fleet-backend/internal/integrations"
	"solar-fleet-backend/internal/notify"
	"solar-fleet-backend/internal/rollup"
	"solar-fleet-backend/internal/sched"
	"solar-fleet-backend/internal/store"
)

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger, err := newLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	if cfg.Auth.JWTSecret == "" || cfg.Auth.DeviceHMACSecret == "" {
		logger.Fatal("jwt_secret and device_hmac_secret must be configured")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	sink := audit.NewSink(appStore, logger)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	resolver := entitlement.NewResolver(appStore)
	ingestSvc := ingest.NewService(appStore, sink, logger)

	evaluator := alert.NewEvaluator(appStore, notify.NewProducer(), alert.Defaults{
		NoTelemetryThresholdMinutes: cfg.Alerts.NoTelemetryThresholdMinutes,
		OverTempThresholdC:          cfg.Alerts.OverTempThresholdC,
		SensorOutOfRangeRepeat:      cfg.Alerts.SensorOutOfRangeRepeat,
	}, logger)
	dispatcher := notify.NewDispatcher(appStore, logger)
	roller := rollup.NewRoller(appStore, logger)
	weatherPuller := integrations.NewWeatherPuller(appStore, &integrations.StubWeather{}, logger)

	scheduler := sched.New(cfg, evaluator, dispatcher, roller, weatherPuller, logger)
	go scheduler.Run(ctx)

	handler := api.NewHandler(
		appStore, cfg, issuer, resolver, sink, ingestSvc,
		&integrations.StubSim{}, logger)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("http server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("http server shutdown failed", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}
