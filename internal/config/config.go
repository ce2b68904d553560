// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Connection settings are required and
// enforced by must(); business parameters carry defaults.
type Config struct {
	Env           string        // application environment ("dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBMaxOpen     int           // connection pool size (0 = default)
	DBMaxIdle     int           // idle connections kept (0 = follow pool size)
	DBConnMaxLife time.Duration // connection recycling age (0 = default)
	JWTSecret     string        // secret used to verify bearer tokens
	HoldTTL       time.Duration // seat hold time-to-live
	SweepInterval time.Duration // background expiry sweep period
	MigrationsDir string        // directory holding SQL migrations

	// Shared secrets for payment providers; empty disables a provider.
	PaymentSecrets map[string]string
}

// Load reads configuration from environment variables.  Missing
// required variables cause the program to exit with a fatal log
// message.
func Load() Config {
	return Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		DBMaxOpen:     envInt("DB_MAX_OPEN_CONNS", 0),
		DBMaxIdle:     envInt("DB_MAX_IDLE_CONNS", 0),
		DBConnMaxLife: envDur("DB_CONN_MAX_LIFETIME", 0),
		JWTSecret:     must("JWT_SECRET"),
		HoldTTL:       envDur("HOLD_TTL", 10*time.Minute),
		SweepInterval: envDur("HOLD_SWEEP_INTERVAL", time.Minute),
		MigrationsDir: getenv("MIGRATIONS_DIR", "migrations"),
		PaymentSecrets: map[string]string{
			"flutterwave": os.Getenv("FLUTTERWAVE_SECRET"),
			"mtn":         os.Getenv("MTN_SECRET"),
			"airtel":      os.Getenv("AIRTEL_SECRET"),
		},
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid integer for %s: %q, using %d", key, v, def)
	}
	return def
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDur parses a Go duration string ("10m", "90s"); invalid or unset
// values fall back to the default.
func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Printf("invalid duration for %s: %q, using %s", key, v, def)
	}
	return def
}
