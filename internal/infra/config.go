package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                 string
	Port                   string
	DatabaseURL            string
	DBMaxConns             int
	GeminiAPIKey           string
	GeminiImageModel       string
	GeminiVisionModel      string
	ClerkIssuer            string
	ClerkJWKSURL           string
	ClerkAuthorizedParties []string
	ClerkWebhookSecret     string
	StorageDriver          string
	StoragePath            string
	S3Bucket               string
	S3Region               string
	S3Endpoint             string
	S3AccessKeyID          string
	S3SecretAccessKey      string
	GeoIPDBPath            string
	SentryDSN              string
	CORSAllowedOrigins     []string
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	HTTPIdleTimeout        time.Duration
	ShutdownTimeout        time.Duration
	RateLimitPerMin        int
	MaxUploadBytes         int64
	VisualizeWorkers       int
	VisualizeQueueSize     int
	VisualizeRetention     time.Duration
	LeaderboardCron        string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             getEnvInt("DB_MAX_CONNS", 10),
		GeminiAPIKey:           strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiImageModel:       getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-exp-image-generation"),
		GeminiVisionModel:      getEnv("GEMINI_VISION_MODEL", "gemini-2.0-flash"),
		ClerkIssuer:            strings.TrimRight(os.Getenv("CLERK_ISSUER"), "/"),
		ClerkJWKSURL:           os.Getenv("CLERK_JWKS_URL"),
		ClerkAuthorizedParties: getEnvList("CLERK_AUTHORIZED_PARTIES"),
		ClerkWebhookSecret:     os.Getenv("CLERK_WEBHOOK_SECRET"),
		StorageDriver:          strings.ToLower(getEnv("STORAGE_DRIVER", "fs")),
		StoragePath:            getEnv("STORAGE_PATH", "./storage"),
		S3Bucket:               os.Getenv("S3_BUCKET"),
		S3Region:               getEnv("S3_REGION", "eu-west-2"),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:          os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
		GeoIPDBPath:            os.Getenv("GEOIP_DB_PATH"),
		SentryDSN:              os.Getenv("SENTRY_DSN"),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS"),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:        getEnvDuration("SHUTDOWN_TIMEOUT", 20*time.Second),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		VisualizeWorkers:       getEnvInt("VISUALIZE_WORKERS", 2),
		VisualizeQueueSize:     getEnvInt("VISUALIZE_QUEUE_SIZE", 32),
		VisualizeRetention:     getEnvDuration("VISUALIZE_RETENTION", time.Hour),
		LeaderboardCron:        getEnv("LEADERBOARD_CRON", "@every 10m"),
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.ClerkJWKSURL == "" && cfg.ClerkIssuer != "" {
		cfg.ClerkJWKSURL = cfg.ClerkIssuer + "/.well-known/jwks.json"
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	switch cfg.StorageDriver {
	case "fs":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 10
	}
	if cfg.VisualizeWorkers <= 0 {
		cfg.VisualizeWorkers = 1
	}
	if cfg.VisualizeQueueSize <= 0 {
		cfg.VisualizeQueueSize = 1
	}

	return cfg, nil
}

// GeminiConfigured reports whether the image generator can be used.
func (c *Config) GeminiConfigured() bool {
	return c != nil && c.GeminiAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
