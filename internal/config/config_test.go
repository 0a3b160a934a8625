package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	EnvAccountSID, EnvAuthToken, EnvFromNumber, EnvAPIBaseURL,
	EnvHTTPTimeout, EnvPollInterval, EnvMaxAttempts, EnvLogLevel,
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultFromNumber, cfg.FromNumber)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAccountSID, "AC123")
	t.Setenv(EnvAuthToken, "secret")
	t.Setenv(EnvFromNumber, "+15550001111")
	t.Setenv(EnvPollInterval, "500ms")
	t.Setenv(EnvMaxAttempts, "3")
	t.Setenv(EnvHTTPTimeout, "5s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "AC123", cfg.AccountSID)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.Equal(t, "+15550001111", cfg.FromNumber)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad poll interval", key: EnvPollInterval, value: "two seconds"},
		{name: "bad max attempts", key: EnvMaxAttempts, value: "ten"},
		{name: "bad http timeout", key: EnvHTTPTimeout, value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AccountSID:   "AC123",
			AuthToken:    "secret",
			FromNumber:   "+15550001111",
			HTTPTimeout:  time.Second,
			PollInterval: time.Second,
			MaxAttempts:  10,
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing sid", mutate: func(c *Config) { c.AccountSID = "" }, errContains: EnvAccountSID},
		{name: "missing token", mutate: func(c *Config) { c.AuthToken = "" }, errContains: EnvAuthToken},
		{name: "sender format is left to twilio", mutate: func(c *Config) { c.FromNumber = "15550001111" }},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, errContains: EnvMaxAttempts},
		{name: "negative interval", mutate: func(c *Config) { c.PollInterval = -time.Second }, errContains: EnvPollInterval},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTPTimeout = 0 }, errContains: EnvHTTPTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidate_MissingBothCredentials(t *testing.T) {
	cfg := &Config{FromNumber: "+1", MaxAttempts: 1, HTTPTimeout: time.Second}

	err := cfg.Validate()

	var missingErr *MissingCredentialsError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{EnvAccountSID, EnvAuthToken}, missingErr.Missing)
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, "twilio.env")
	content := "TWILIO_ACCOUNT_SID=ACfromfile\nTWILIO_AUTH_TOKEN=tokenfromfile\nTWILIO_PHONE_NUMBER=+15552223333\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "ACfromfile", cfg.AccountSID)
	assert.Equal(t, "tokenfromfile", cfg.AuthToken)
	assert.Equal(t, "+15552223333", cfg.FromNumber)
}

func TestLoad_ProcessEnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAccountSID, "ACfromenv")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TWILIO_ACCOUNT_SID=ACfromfile\nTWILIO_AUTH_TOKEN=tok\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "ACfromenv", cfg.AccountSID)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load env file")
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Load("")

	var missingErr *MissingCredentialsError
	require.True(t, errors.As(err, &missingErr))
}
