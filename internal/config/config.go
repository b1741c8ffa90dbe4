package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-based settings.
type Config struct {
	Environment    string
	ServerAddress  string
	JWTSecret      string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string

	PrayerAPIURL      string
	DefaultLatitude   float64
	DefaultLongitude  float64
	CalculationMethod string
	Madhab            string

	SyncInterval     time.Duration
	AutoMarkMissedAt string // HH:MM, device-local
}

// Load reads configuration from a .env file (when present) and the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:    os.Getenv("APP_ENV"),
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		PrayerAPIURL:      os.Getenv("PRAYER_API_URL"),
		CalculationMethod: getEnv("CALCULATION_METHOD", "2"),
		Madhab:            getEnv("MADHAB", "shafi"),

		AutoMarkMissedAt: getEnv("AUTO_MARK_MISSED_AT", "00:30"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.DefaultLatitude, err = getFloat("DEFAULT_LATITUDE"); err != nil {
		return nil, err
	}
	if cfg.DefaultLongitude, err = getFloat("DEFAULT_LONGITUDE"); err != nil {
		return nil, err
	}

	interval := getEnv("SYNC_INTERVAL", "15m")
	if cfg.SyncInterval, err = time.ParseDuration(interval); err != nil {
		return nil, fmt.Errorf("bad SYNC_INTERVAL %q: %w", interval, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", key, raw, err)
	}
	return v, nil
}
