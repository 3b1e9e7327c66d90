package hookfreight

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the environment-driven configuration for a HookFreight process.
//
// Every field is sourced from a single environment variable (see LoadConfig);
// there is no config file. This matches the deployment model described by
// the HOOKFREIGHT_* table: a twelve-factor service tuned entirely through
// its environment.
type Config struct {
	// Port is the HTTP listen port. HOOKFREIGHT_PORT, default 3030.
	Port int

	// Host is the HTTP listen address. HOOKFREIGHT_HOST, default "0.0.0.0".
	Host string

	// BaseURL is the public base URL used by the self-forward guard.
	// HOOKFREIGHT_BASE_URL, default "http://localhost:3030".
	BaseURL string

	// MaxBodyBytes caps the size of a captured request body.
	// HOOKFREIGHT_MAX_BODY_BYTES, default 1048576 (1 MiB).
	MaxBodyBytes int64

	// QueueConcurrency is the delivery worker pool size (W).
	// HOOKFREIGHT_QUEUE_CONCURRENCY, default 5.
	QueueConcurrency int

	// QueueMaxRetries is the maximum number of automatic attempts per retry chain.
	// HOOKFREIGHT_QUEUE_MAX_RETRIES, default 5.
	QueueMaxRetries int
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Port:             3030,
		Host:             "0.0.0.0",
		BaseURL:          "http://localhost:3030",
		MaxBodyBytes:     1048576,
		QueueConcurrency: 5,
		QueueMaxRetries:  5,
	}
}

// LoadConfig reads the HOOKFREIGHT_* environment variables, falling back to
// DefaultConfig for anything unset (and for an empty HOST or BASE_URL). A
// numeric variable that is set but does not parse is returned as an error.
//
// No third-party environment-parsing library is used here: the env surface
// is six scalar fields with a fixed, already-documented defaults table, and
// nothing in the example pack offers a var-by-var loader with struct tags
// that this would meaningfully benefit from over a handful of os.Getenv
// calls (see DESIGN.md).
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("HOOKFREIGHT_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("hookfreight: HOOKFREIGHT_PORT: %w", err)
		}
		cfg.Port = n
	}

	if v, ok := os.LookupEnv("HOOKFREIGHT_HOST"); ok && v != "" {
		cfg.Host = v
	}

	if v, ok := os.LookupEnv("HOOKFREIGHT_BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}

	if v, ok := os.LookupEnv("HOOKFREIGHT_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("hookfreight: HOOKFREIGHT_MAX_BODY_BYTES: %w", err)
		}
		cfg.MaxBodyBytes = n
	}

	if v, ok := os.LookupEnv("HOOKFREIGHT_QUEUE_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("hookfreight: HOOKFREIGHT_QUEUE_CONCURRENCY: %w", err)
		}
		cfg.QueueConcurrency = n
	}

	if v, ok := os.LookupEnv("HOOKFREIGHT_QUEUE_MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("hookfreight: HOOKFREIGHT_QUEUE_MAX_RETRIES: %w", err)
		}
		cfg.QueueMaxRetries = n
	}

	return cfg, nil
}
