package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Local cache
	CacheDBPath string

	// Remote store
	RemoteBackend string // "rest", "memory" or "none"
	RemoteURL     string
	RemoteAPIKey  string
	RemoteTable   string

	// Identity provider
	IdentityBackend string // "google" or "static"
	GoogleClientID  string
	StaticToken     string
	StaticUserID    string

	// Change notifications (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sync
	DebounceWindow time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8082"),
		CacheDBPath: getEnv("CACHE_DB_PATH", "./data/bilancio.db"),

		RemoteBackend: getEnv("REMOTE_BACKEND", "memory"),
		RemoteURL:     getEnv("REMOTE_STORE_URL", ""),
		RemoteAPIKey:  getEnv("REMOTE_STORE_API_KEY", ""),
		RemoteTable:   getEnv("REMOTE_STORE_TABLE", "budget_data"),

		IdentityBackend: getEnv("IDENTITY_BACKEND", "static"),
		GoogleClientID:  getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
		StaticToken:     getEnv("STATIC_SESSION_TOKEN", ""),
		StaticUserID:    getEnv("STATIC_SESSION_USER", "local"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "store_updates"),

		DebounceWindow: getEnvDuration("SYNC_DEBOUNCE_WINDOW", 800*time.Millisecond),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.CacheDBPath == "" {
		errors = append(errors, "cache database path cannot be empty")
	}

	// Validate remote backend
	validRemotes := []string{"rest", "memory", "none"}
	isValidRemote := false
	for _, backend := range validRemotes {
		if c.RemoteBackend == backend {
			isValidRemote = true
			break
		}
	}
	if !isValidRemote {
		errors = append(errors, fmt.Sprintf("invalid remote backend '%s': must be one of %v", c.RemoteBackend, validRemotes))
	}

	if c.RemoteBackend == "rest" {
		if c.RemoteURL == "" {
			errors = append(errors, "remote store URL is required when using rest backend")
		} else if parsedURL, err := url.Parse(c.RemoteURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid remote store URL '%s': %v", c.RemoteURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid remote store URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.RemoteTable == "" {
			errors = append(errors, "remote store table cannot be empty when using rest backend")
		}
	}

	// Validate identity backend
	switch c.IdentityBackend {
	case "google":
		if c.GoogleClientID == "" {
			errors = append(errors, "GOOGLE_OAUTH_CLIENT_ID is required when using google identity backend")
		}
	case "static":
		if c.StaticToken == "" {
			errors = append(errors, "STATIC_SESSION_TOKEN is required when using static identity backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid identity backend '%s': must be one of [google static]", c.IdentityBackend))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate debounce window
	if c.DebounceWindow < 50*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid debounce window %v: must be at least 50ms", c.DebounceWindow))
	} else if c.DebounceWindow > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid debounce window %v: must be at most 1 minute", c.DebounceWindow))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
