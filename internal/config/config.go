package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ModelPath points at the YAML or JSON classifier artifact.
	ModelPath string

	// Upstream data providers.
	UpstreamTimeout      time.Duration
	NominatimURL         string
	NominatimUserAgent   string
	NominatimRateLimit   float64 // requests per second
	OpenMeteoForecastURL string
	OpenMeteoArchiveURL  string
	SoilGridsURL         string

	CORSAllowedOrigins []string

	// Prediction event stream.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaPredictionTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("UPSTREAM_TIMEOUT", "10s"))
	if err != nil || upstreamTimeout <= 0 {
		return nil, errors.New("invalid UPSTREAM_TIMEOUT")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NOMINATIM_RATE_LIMIT", "1"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid NOMINATIM_RATE_LIMIT")
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath: sharedcfg.EnvOrDefault("MODEL_PATH", "model/crop_model.yaml"),

		UpstreamTimeout:      upstreamTimeout,
		NominatimURL:         sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent:   sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "GeoSenseAI/1.0"),
		NominatimRateLimit:   rateLimit,
		OpenMeteoForecastURL: sharedcfg.EnvOrDefault("OPEN_METEO_FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
		OpenMeteoArchiveURL:  sharedcfg.EnvOrDefault("OPEN_METEO_ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		SoilGridsURL:         sharedcfg.EnvOrDefault("SOILGRIDS_URL", "https://rest.isric.org/soilgrids/v2.0"),
		CORSAllowedOrigins:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         brokers,
		KafkaPredictionTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "crop-predictions"),
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaPredictionTopic == "" {
		return nil, errors.New("KAFKA_PREDICTION_TOPIC is required")
	}

	return cfg, nil
}
