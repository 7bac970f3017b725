package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration loaded from environment
// variables.
type Config struct {
	Env              string
	HTTPAddr         string
	Currency         string
	PlatformFeeBps   int64
	ApprovalTimeout  time.Duration
	SweepInterval    time.Duration
	IdempotencyTTL   time.Duration
	PersistenceMode  string
	MongoURI         string
	MongoDB          string
	KafkaBrokers     []string
	KafkaTopicPrefix string
	FixturesPath     string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Currency:         strings.ToUpper(getEnv("CURRENCY", "EUR")),
		PersistenceMode:  strings.ToLower(getEnv("PERSISTENCE_MODE", "memory")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "rentcore"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		FixturesPath:     os.Getenv("FIXTURES_PATH"),
	}

	feeBps, err := parseIntEnv("PLATFORM_FEE_BPS", 1000)
	if err != nil {
		return Config{}, err
	}
	if feeBps < 0 || feeBps > 10_000 {
		return Config{}, fmt.Errorf("PLATFORM_FEE_BPS out of range: %d", feeBps)
	}
	cfg.PlatformFeeBps = feeBps

	approvalTimeout, err := parseDurationEnv("APPROVAL_TIMEOUT", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.ApprovalTimeout = approvalTimeout

	sweepInterval, err := parseDurationEnv("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval = sweepInterval

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	switch cfg.PersistenceMode {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when PERSISTENCE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("unknown PERSISTENCE_MODE: %q", cfg.PersistenceMode)
	}
	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("CURRENCY must be a 3-letter code, got %q", cfg.Currency)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
