/*
config.go - Runtime configuration

PURPOSE:
  Reads the server settings from the environment. A .env file in the
  working directory is loaded first when present; real environment
  variables win over it. CLI flags override both (see cli/serve.go).

VARIABLES:
  KPITRACK_ADDR           Listen address             (default :8080)
  KPITRACK_DB             SQLite file for the cache  (default kpitrack.db)
  KPITRACK_ENV            development | production   (default development)
  KPITRACK_CORS_ORIGINS   Comma separated origins    (default local dev servers)
  KPITRACK_SYNC_INTERVAL  Cache sync period, 0 = off (default 1m)
  KPITRACK_DEMO           Seed the demo dataset      (default false)
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Addr         string
	DBPath       string
	Environment  string
	CORSOrigins  []string
	SyncInterval time.Duration
	Demo         bool
}

// Load reads .env (if any) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		Addr:         getEnv("KPITRACK_ADDR", ":8080"),
		DBPath:       getEnv("KPITRACK_DB", "kpitrack.db"),
		Environment:  getEnv("KPITRACK_ENV", EnvDevelopment),
		CORSOrigins:  getEnvList("KPITRACK_CORS_ORIGINS"),
		SyncInterval: getEnvDuration("KPITRACK_SYNC_INTERVAL", time.Minute),
		Demo:         getEnvBool("KPITRACK_DEMO", false),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("KPITRACK_ADDR is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("KPITRACK_DB is required")
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("KPITRACK_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}
	if c.SyncInterval < 0 {
		return errors.New("KPITRACK_SYNC_INTERVAL must not be negative")
	}
	if c.IsProduction() && c.Demo {
		return errors.New("KPITRACK_DEMO must be disabled in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
