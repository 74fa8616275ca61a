package api

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port            string
	DefaultCarriers []string

	FedExBaseURL       string
	FedExClientID      string
	FedExClientSecret  string
	FedExAccountNumber string
	FedExTimeout       time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	KafkaBroker string
	KafkaTopic  string
	KafkaOff    bool
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		FedExBaseURL:       envDefault("FEDEX_BASE_URL", "https://apis-sandbox.fedex.com"),
		FedExClientID:      strings.TrimSpace(os.Getenv("FEDEX_CLIENT_ID")),
		FedExClientSecret:  strings.TrimSpace(os.Getenv("FEDEX_CLIENT_SECRET")),
		FedExAccountNumber: strings.TrimSpace(os.Getenv("FEDEX_ACCOUNT_NUMBER")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBroker:        strings.TrimSpace(os.Getenv("KAFKA_BROKER")),
		KafkaTopic:         envDefault("KAFKA_TOPIC", "rates.aggregated"),
		KafkaOff:           isTruthy(os.Getenv("KAFKA_DISABLED")),
	}
	if cfg.FedExClientID == "" || cfg.FedExClientSecret == "" {
		return Config{}, fmt.Errorf("FEDEX_CLIENT_ID and FEDEX_CLIENT_SECRET must be set")
	}
	if cfg.FedExAccountNumber == "" {
		return Config{}, fmt.Errorf("FEDEX_ACCOUNT_NUMBER must be set")
	}
	timeout, err := durationDefault("FEDEX_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FedExTimeout = timeout
	ttl, err := durationDefault("CACHE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL = ttl
	if raw := strings.TrimSpace(os.Getenv("DEFAULT_CARRIERS")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if carrier := strings.TrimSpace(strings.ToLower(part)); carrier != "" {
				cfg.DefaultCarriers = append(cfg.DefaultCarriers, carrier)
			}
		}
	}
	return cfg, nil
}

func durationDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return parsed, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
