package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Monitoring configuration
	TargetInstitutions []string
	MonitorInterval    time.Duration
	TimeZone           string

	// Core tuning
	FeedCapacity           int
	AlertSuppressionWindow time.Duration
	SpikeTweetThreshold    int

	// X API and analysis backend credentials
	XBearerToken string
	XAIAPIKey    string
	XAIModel     string

	// Azure Storage configuration (history export snapshots)
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	SlackWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		TargetInstitutions: getSliceEnv("TARGET_INSTITUTIONS", models.DefaultWatchlist()),
		MonitorInterval:    getDurationEnv("MONITOR_INTERVAL", 10*time.Minute),
		TimeZone:           getEnv("TIMEZONE", "UTC"),

		FeedCapacity:           getIntEnv("FEED_CAPACITY", 250),
		AlertSuppressionWindow: getDurationEnv("ALERT_SUPPRESSION_WINDOW", 5*time.Minute),
		SpikeTweetThreshold:    getIntEnv("SPIKE_TWEET_THRESHOLD", 50),

		XBearerToken: getEnv("X_BEARER_TOKEN", ""),
		XAIAPIKey:    getEnv("XAI_API_KEY", ""),
		XAIModel:     getEnv("XAI_MODEL", "grok-4-1-fast"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "sentinel-exports"),

		SlackWebhookURL:   getEnv("SLACK_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.TargetInstitutions) == 0 {
		return fmt.Errorf("TARGET_INSTITUTIONS must list at least one institution")
	}

	if c.FeedCapacity <= 0 {
		return fmt.Errorf("FEED_CAPACITY must be positive")
	}

	if c.AlertSuppressionWindow < 0 {
		return fmt.Errorf("ALERT_SUPPRESSION_WINDOW must not be negative")
	}

	if c.MonitorInterval < time.Minute {
		return fmt.Errorf("MONITOR_INTERVAL must be at least one minute")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
