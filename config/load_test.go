package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// TestLoadDefaults verifies the defaults when no variables are set.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"MORTAR_LIMIT":  "",
		"MORTAR_OFFSET": "",
		"MORTAR_ADDR":   "",
	})

	cfg, err := Load(WithDotenv())

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"MORTAR_LIMIT":            "50",
		"MORTAR_OFFSET":           "10",
		"MORTAR_ADDR":             "127.0.0.1:9000",
		"MORTAR_LOG_LEVEL":        "debug",
		"MORTAR_LOG_FORMAT":       "console",
		"MORTAR_SHUTDOWN_TIMEOUT": "3s",
	})

	cfg, err := Load(WithDotenv())

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Limit)
	assert.Equal(t, 10, cfg.Offset)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "mortar.yaml")
	require.NoError(t, os.WriteFile(file, []byte("limit: 5\noffset: 2\n"), 0o600))

	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("MORTAR_OFFSET=7\n"), 0o600))

	// godotenv never overrides variables that are already set
	t.Setenv("MORTAR_OFFSET", "")
	os.Unsetenv("MORTAR_OFFSET")

	cfg, err := Load(WithConfigFile(file), WithDotenv(dotenv))

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Limit, "limit should come from the config file")
	assert.Equal(t, 7, cfg.Offset, "environment should take precedence over the config file")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(WithDotenv(), WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Zero limit",
			envVars: map[string]string{"MORTAR_LIMIT": "0"},
		},
		{
			name:    "Negative offset",
			envVars: map[string]string{"MORTAR_OFFSET": "-1"},
		},
		{
			name:    "Invalid address",
			envVars: map[string]string{"MORTAR_ADDR": "not an address"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"MORTAR_LOG_LEVEL": "loud"},
		},
		{
			name:    "Invalid log format",
			envVars: map[string]string{"MORTAR_LOG_FORMAT": "xml"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupEnv(t, tc.envVars)

			cfg, err := Load(WithDotenv())

			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg)
		})
	}
}
