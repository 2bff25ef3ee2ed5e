package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Storage back-ends selectable with STORAGE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port           int
	DataPath       string
	StorageBackend string
	DBPath         string
	DatabaseURL    string
	SessionSecret  string
	SessionTTL     time.Duration
	SessionSweep   string
	CookieSecure   bool
	CORSOrigins    []string
	LogLevel       string
	AuthRateLimit  int
	PipelineScale  float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to read .env file")
	}

	dataPath := getEnv("DATA_PATH", "./data")

	// Session secret: require explicit setting or generate random
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logrus.Fatalf("failed to generate random session secret: %v", err)
		}
		secret = hex.EncodeToString(b)
		logrus.Warn("SESSION_SECRET not set, using random secret. Session cookies will not survive restarts.")
	}

	return &Config{
		Port:           cast.ToInt(getEnv("PORT", "8080")),
		DataPath:       dataPath,
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendSQLite)),
		DBPath:         getEnv("DB_PATH", filepath.Join(dataPath, "editor.db")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SessionSecret:  secret,
		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),
		SessionSweep:   getEnv("SESSION_SWEEP", "@every 15m"),
		CookieSecure:   cast.ToBool(getEnv("COOKIE_SECURE", "false")),
		CORSOrigins:    parseOrigins(os.Getenv("CORS_ORIGINS")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AuthRateLimit:  cast.ToInt(getEnv("AUTH_RATE_LIMIT", "20")),
		PipelineScale:  getFloat("PIPELINE_TIME_SCALE", 1.0),
	}
}

// parseOrigins splits a comma-separated CORS_ORIGINS value; empty means "*".
func parseOrigins(v string) []string {
	if v == "" {
		return []string{"*"}
	}
	parts := strings.Split(v, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := cast.ToDurationE(v)
	if err != nil || d <= 0 {
		logrus.Warnf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f <= 0 {
		logrus.Warnf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}
