package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/form-assist-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Address lookup service.
	LookupBaseURL string
	LookupTimeout time.Duration

	// Session handling.
	SessionCookie       string
	SessionCookieSecure bool
	SessionIdleTimeout  time.Duration
	SessionMax          int

	// Fields the form marks as required; consulted on submit.
	RequiredFields []domain.Field

	// Submission publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaSubmissionTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	lookupTimeout, err := parsePositiveDuration("LOOKUP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	idleTimeout, err := parsePositiveDuration("SESSION_IDLE_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}

	sessionMax, err := parseSessionMax()
	if err != nil {
		return nil, err
	}

	cookieSecure, err := parseBool("SESSION_COOKIE_SECURE")
	if err != nil {
		return nil, err
	}

	required, err := parseRequiredFields(sharedcfg.EnvOrDefault("FORM_REQUIRED_FIELDS", "name,email,postalCode"))
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LookupBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("LOOKUP_BASE_URL", "https://viacep.com.br"), "/"),
		LookupTimeout: lookupTimeout,

		SessionCookie:       sharedcfg.EnvOrDefault("SESSION_COOKIE", "form_session"),
		SessionCookieSecure: cookieSecure,
		SessionIdleTimeout:  idleTimeout,
		SessionMax:          sessionMax,

		RequiredFields: required,

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         brokers,
		KafkaSubmissionTopic: sharedcfg.EnvOrDefault("KAFKA_SUBMISSION_TOPIC", "form-submissions"),
	}

	if cfg.LookupBaseURL == "" {
		return nil, errors.New("LOOKUP_BASE_URL is required")
	}
	if cfg.SessionCookie == "" {
		return nil, errors.New("SESSION_COOKIE is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSubmissionTopic == "" {
		return nil, errors.New("KAFKA_SUBMISSION_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseSessionMax() (int, error) {
	s := os.Getenv("SESSION_MAX")
	if s == "" {
		return 10000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid SESSION_MAX")
	}
	return n, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parseRequiredFields(s string) ([]domain.Field, error) {
	var fields []domain.Field
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := domain.ParseField(part)
		if err != nil {
			return nil, fmt.Errorf("invalid FORM_REQUIRED_FIELDS: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
