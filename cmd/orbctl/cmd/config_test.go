package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orbworks/orbit/session"
	"github.com/orbworks/orbit/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orbctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
device = "/dev/rfcomm0"
baud = 57600
response_timeout = "500ms"
log_level = "Debug"
`)

	cfg, err := loadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/rfcomm0", cfg.Device)
	assert.Equal(t, 57600, cfg.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.ResponseTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadProfile_DefaultsForAbsentKeys(t *testing.T) {
	path := writeProfile(t, `device = "/dev/rfcomm1"`)

	cfg, err := loadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/rfcomm1", cfg.Device)
	assert.Equal(t, transport.DefaultBaudRate, cfg.Baud)
	assert.Equal(t, session.DefaultResponseTimeout, cfg.ResponseTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadProfile_ZeroTimeoutDisablesDeadline(t *testing.T) {
	path := writeProfile(t, `response_timeout = "0s"`)

	cfg, err := loadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.ResponseTimeout)
}

func TestLoadProfile_BadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad duration", `response_timeout = "abc"`, "parse response timeout"},
		{"negative duration", `response_timeout = "-1s"`, "must not be negative"},
		{"zero baud", `baud = 0`, "baud must be positive"},
		{"negative baud", `baud = -9600`, "baud must be positive"},
		{"not toml", `device = `, "load profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadProfile(writeProfile(t, tt.content))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "load profile")
}
