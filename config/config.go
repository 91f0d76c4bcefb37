package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Alerts   AlertConfig    `yaml:"alerts"`
	Jobs     JobConfig      `yaml:"jobs"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig holds the signing secrets for user and device credentials.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTExpiresInHrs  int           `yaml:"jwt_expires_in_hours"`
	JWTExpiresIn     time.Duration `yaml:"-"` // Ignored by YAML parser
	DeviceHMACSecret string        `yaml:"device_hmac_secret"`
}

// AlertConfig holds the alert evaluator cadence and rule parameter defaults.
type AlertConfig struct {
	EvalIntervalMinutes         int     `yaml:"eval_interval_minutes"`
	NoTelemetryThresholdMinutes int     `yaml:"no_telemetry_threshold_minutes"`
	OverTempThresholdC          float64 `yaml:"over_temp_threshold_c"`
	SensorOutOfRangeRepeat      int     `yaml:"sensor_out_of_range_repeat_count"`
}

// JobConfig holds the hour-of-day (UTC) for the daily background jobs.
type JobConfig struct {
	RollupHourUTC  int `yaml:"rollup_hour_utc"`
	WeatherHourUTC int `yaml:"weather_hour_utc"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path and applies
// environment-variable overrides on top. A missing file is not an error;
// defaults plus environment are enough to boot a development instance.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		if hrs, err := strconv.Atoi(v); err == nil {
			cfg.Auth.JWTExpiresInHrs = hrs
		}
	}
	if v := os.Getenv("DEVICE_HMAC_SECRET"); v != "" {
		cfg.Auth.DeviceHMACSecret = v
	}
	if v := os.Getenv("ALERT_EVAL_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Alerts.EvalIntervalMinutes = n
		}
	}
	if v := os.Getenv("NO_TELEMETRY_THRESHOLD_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Alerts.NoTelemetryThresholdMinutes = n
		}
	}
	if v := os.Getenv("OVER_TEMP_THRESHOLD_C"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Alerts.OverTempThresholdC = f
		}
	}
	if v := os.Getenv("SENSOR_OUT_OF_RANGE_REPEAT_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Alerts.SensorOutOfRangeRepeat = n
		}
	}
	if v := os.Getenv("ROLLUP_HOUR_UTC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Jobs.RollupHourUTC = n
		}
	}
	if v := os.Getenv("WEATHER_HOUR_UTC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Jobs.WeatherHourUTC = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 50
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 100
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-insecure-jwt-secret"
	}
	if cfg.Auth.JWTExpiresInHrs <= 0 {
		cfg.Auth.JWTExpiresInHrs = 24
	}
	cfg.Auth.JWTExpiresIn = time.Duration(cfg.Auth.JWTExpiresInHrs) * time.Hour
	if cfg.Auth.DeviceHMACSecret == "" {
		cfg.Auth.DeviceHMACSecret = "dev-insecure-device-secret"
	}
	if cfg.Alerts.EvalIntervalMinutes <= 0 {
		cfg.Alerts.EvalIntervalMinutes = 5
	}
	if cfg.Alerts.NoTelemetryThresholdMinutes <= 0 {
		cfg.Alerts.NoTelemetryThresholdMinutes = 30
	}
	if cfg.Alerts.OverTempThresholdC <= 0 {
		cfg.Alerts.OverTempThresholdC = 85
	}
	if cfg.Alerts.SensorOutOfRangeRepeat <= 0 {
		cfg.Alerts.SensorOutOfRangeRepeat = 3
	}
	if cfg.Jobs.RollupHourUTC < 0 || cfg.Jobs.RollupHourUTC > 23 {
		cfg.Jobs.RollupHourUTC = 2
	} else if cfg.Jobs.RollupHourUTC == 0 {
		cfg.Jobs.RollupHourUTC = 2
	}
	if cfg.Jobs.WeatherHourUTC <= 0 || cfg.Jobs.WeatherHourUTC > 23 {
		cfg.Jobs.WeatherHourUTC = 6
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
