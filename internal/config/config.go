package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAccountSID   = "TWILIO_ACCOUNT_SID"
	EnvAuthToken    = "TWILIO_AUTH_TOKEN"
	EnvFromNumber   = "TWILIO_PHONE_NUMBER"
	EnvAPIBaseURL   = "TWILIO_API_BASE_URL"
	EnvHTTPTimeout  = "TWILIO_HTTP_TIMEOUT"
	EnvPollInterval = "SMS_POLL_INTERVAL"
	EnvMaxAttempts  = "SMS_MAX_ATTEMPTS"
	EnvLogLevel     = "LOG_LEVEL"
	EnvEnvFile      = "SMS_ENV_FILE"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultFromNumber   = "+13022716778"
	DefaultAPIBaseURL   = "https://api.twilio.com/2010-04-01"
	DefaultHTTPTimeout  = 10 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 10
	DefaultLogLevel     = "info"
	DefaultEnvFile      = ".env"
)

// Config holds the process-wide provider credentials and delivery settings.
type Config struct {
	// AccountSID identifies the Twilio account
	AccountSID string

	// AuthToken is the Twilio auth secret
	AuthToken string

	// FromNumber is the sender number used for every outgoing message
	FromNumber string

	// APIBaseURL is the Twilio REST API root including the API version
	APIBaseURL string

	// HTTPTimeout bounds a single provider HTTP call
	HTTPTimeout time.Duration

	// PollInterval is the fixed delay between status fetches
	PollInterval time.Duration

	// MaxAttempts bounds the number of status observations per message
	MaxAttempts int

	// LogLevel is the slog level name
	LogLevel string
}

// MissingCredentialsError reports which required variables were not set.
type MissingCredentialsError struct {
	Missing []string
}

// Error implements the error interface
func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("required Twilio environment variables are not set: %s", strings.Join(e.Missing, ", "))
}

// Load reads envFile (if it exists) into the process environment and builds a
// validated Config. An empty envFile means DefaultEnvFile; a missing default file
// is not an error, a missing explicitly named file is.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current process environment without validating credentials.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AccountSID: strings.TrimSpace(os.Getenv(EnvAccountSID)),
		AuthToken:  strings.TrimSpace(os.Getenv(EnvAuthToken)),
		FromNumber: getEnvOrDefault(EnvFromNumber, DefaultFromNumber),
		APIBaseURL: getEnvOrDefault(EnvAPIBaseURL, DefaultAPIBaseURL),
		LogLevel:   getEnvOrDefault(EnvLogLevel, DefaultLogLevel),
	}

	var err error
	if cfg.HTTPTimeout, err = getEnvDurationOrDefault(EnvHTTPTimeout, DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getEnvDurationOrDefault(EnvPollInterval, DefaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getEnvIntOrDefault(EnvMaxAttempts, DefaultMaxAttempts); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that credentials are present and tuning values are usable.
func (c *Config) Validate() error {
	var missing []string
	if c.AccountSID == "" {
		missing = append(missing, EnvAccountSID)
	}
	if c.AuthToken == "" {
		missing = append(missing, EnvAuthToken)
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Missing: missing}
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", EnvMaxAttempts, c.MaxAttempts)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("%s must not be negative, got %s", EnvPollInterval, c.PollInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", EnvHTTPTimeout, c.HTTPTimeout)
	}
	return nil
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationOrDefault parses a time.Duration environment variable.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// getEnvIntOrDefault parses an integer environment variable.
func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
