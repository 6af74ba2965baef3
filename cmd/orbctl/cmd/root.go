package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/orbworks/orbit/device"
	"github.com/orbworks/orbit/logger"
	"github.com/orbworks/orbit/session"
	"github.com/orbworks/orbit/transport"
	"github.com/spf13/cobra"
)

var errDeviceRequired = errors.New("no device: pass --device or set device in the profile")

var (
	// Persistent flags.
	cfgFile      string
	deviceFlag   string
	baudFlag     int
	timeoutFlag  string
	logLevelFlag string

	// Resolved in PersistentPreRunE: profile file values with flag
	// overrides applied.
	profile profileConfig
)

var rootCmd = &cobra.Command{
	Use:   "orbctl",
	Short: "Control an Orbit robot over its serial link",
	Long: `Orbctl drives an Orbit robot over an already-paired serial device,
typically an RFCOMM channel bound to the robot's Bluetooth address.

Connection settings come from a TOML profile, overridden by flags:
  device, baud, response_timeout, log_level`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure. Robot
// status refusals are rendered with their catalogue description.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := device.StatusOf(err); ok {
			fmt.Fprintf(os.Stderr, "Error: robot refused: %s\n", device.StatusText(code))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}

		os.Exit(1)
	}
}

// resolveProfile loads the TOML profile and layers changed flags on top.
// A missing file is only an error when --config named it explicitly.
func resolveProfile() error {
	path := cfgFile
	explicit := path != ""
	if !explicit {
		path = defaultProfilePath()
	}

	profile = defaultProfile()

	if path != "" {
		loaded, err := loadProfile(path)
		switch {
		case err == nil:
			profile = loaded
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("device") {
		profile.Device = deviceFlag
	}
	if flags.Changed("baud") {
		profile.Baud = baudFlag
	}
	if flags.Changed("timeout") {
		d, err := parseTimeout(timeoutFlag)
		if err != nil {
			return err
		}

		profile.ResponseTimeout = d
	}
	if flags.Changed("log-level") {
		profile.LogLevel = logLevelFlag
	}

	return nil
}

func applyLogLevel(level string) error {
	switch level {
	case "debug":
		logger.SetLevel(logger.DebugLevel)
	case "", "info":
		logger.SetLevel(logger.InfoLevel)
	case "warn":
		logger.SetLevel(logger.WarnLevel)
	case "error":
		logger.SetLevel(logger.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	return nil
}

// withDriver opens the configured device, runs fn against a driver bound
// to it and tears the session down afterwards.
func withDriver(cmd *cobra.Command, fn func(ctx context.Context, d *device.Driver) error) error {
	if profile.Device == "" {
		return errDeviceRequired
	}

	ch, err := transport.OpenSerial(profile.Device, transport.WithBaudRate(profile.Baud))
	if err != nil {
		return err
	}

	s, err := session.New(cmd.Context(), ch,
		session.WithResponseTimeout(profile.ResponseTimeout),
		session.WithLogger(logger.GetLogger()),
	)
	if err != nil {
		_ = ch.Close()

		return err
	}
	defer func() { _ = s.Close() }()

	return fn(cmd.Context(), device.New(s))
}

func parseByteArg(name, value string) (byte, error) {
	v, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%s must be 0-255, got %q", name, value)
	}

	return byte(v), nil
}

func parseHeadingArg(value string) (uint16, error) {
	v, err := strconv.ParseUint(value, 10, 16)
	if err != nil || v > 359 {
		return 0, fmt.Errorf("heading must be 0-359 degrees, got %q", value)
	}

	return uint16(v), nil
}

func init() {
	// Assigned here rather than in the composite literal: the closure
	// references resolveProfile, which references rootCmd, and that
	// back-reference trips the compiler's initialization-cycle check.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := resolveProfile(); err != nil {
			return err
		}

		return applyLogLevel(profile.LogLevel)
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "profile file (default is the orbctl.toml under the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "serial device, e.g. /dev/rfcomm0")
	rootCmd.PersistentFlags().IntVar(&baudFlag, "baud", transport.DefaultBaudRate, "serial baud rate")
	rootCmd.PersistentFlags().StringVar(&timeoutFlag, "timeout", "", "response timeout, e.g. 500ms (0 waits forever)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
}
