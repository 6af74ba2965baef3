package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/orbworks/orbit/session"
	"github.com/orbworks/orbit/transport"
)

// profileConfig is the resolved connection profile.
type profileConfig struct {
	Device          string
	Baud            int
	ResponseTimeout time.Duration
	LogLevel        string
}

func defaultProfile() profileConfig {
	return profileConfig{
		Baud:            transport.DefaultBaudRate,
		ResponseTimeout: session.DefaultResponseTimeout,
		LogLevel:        "info",
	}
}

// fileProfile is the TOML shape of a profile. Durations are strings in
// Go duration syntax.
type fileProfile struct {
	Device          string `toml:"device"`
	Baud            int    `toml:"baud"`
	ResponseTimeout string `toml:"response_timeout"`
	LogLevel        string `toml:"log_level"`
}

// loadProfile reads a profile file over the defaults. Keys absent from
// the file keep their default values.
func loadProfile(path string) (profileConfig, error) {
	cfg := defaultProfile()

	var raw fileProfile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return profileConfig{}, fmt.Errorf("load profile: %w", err)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}

	if meta.IsDefined("baud") {
		if raw.Baud <= 0 {
			return profileConfig{}, fmt.Errorf("profile baud must be positive, got %d", raw.Baud)
		}

		cfg.Baud = raw.Baud
	}

	if meta.IsDefined("response_timeout") {
		d, err := parseTimeout(raw.ResponseTimeout)
		if err != nil {
			return profileConfig{}, err
		}

		cfg.ResponseTimeout = d
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	return cfg, nil
}

func parseTimeout(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse response timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("response timeout must not be negative, got %v", d)
	}

	return d, nil
}

// defaultProfilePath locates the user's profile, or returns empty when
// no config directory is available.
func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "orbit", "orbctl.toml")
}
