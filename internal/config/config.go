package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the service reads from the environment.
type Config struct {
	Port string

	DatabaseDSN string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MediaCloudName    string
	MediaUploadPreset string

	InferenceAPIKey string

	AMQPURL      string
	AMQPExchange string
	Environment  string

	OTLPEndpoint string

	DebugRoutes bool
}

// ErrMissingDSN is returned when no database DSN is configured. Absent
// store credentials are fatal at initialization, never a degraded mode.
var ErrMissingDSN = errors.New("DB_DSN is required")

// Load reads the environment (and an optional .env file) into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseDSN:       os.Getenv("DB_DSN"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret"),
		AccessTokenTTL:    getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:   getDuration("REFRESH_TOKEN_TTL", 720*time.Hour),
		MediaCloudName:    os.Getenv("MEDIA_CLOUD_NAME"),
		MediaUploadPreset: os.Getenv("MEDIA_UPLOAD_PRESET"),
		InferenceAPIKey:   os.Getenv("INFERENCE_API_KEY"),
		AMQPURL:           os.Getenv("AMQP_URL"),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "ychat.events"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		DebugRoutes:       os.Getenv("DEBUG_ROUTES") == "true",
	}

	if cfg.DatabaseDSN == "" {
		return Config{}, ErrMissingDSN
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid duration for %s, using default: %v", key, err)
		return fallback
	}
	return d
}
