package cmd

import (
	"context"
	"fmt"

	"github.com/orbworks/orbit/device"
	"github.com/spf13/cobra"
)

var ledPersist bool

var ledCmd = &cobra.Command{
	Use:   "led RED GREEN BLUE",
	Short: "Set the body LED color",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rgb [3]byte
		for i, name := range []string{"red", "green", "blue"} {
			v, err := parseByteArg(name, args[i])
			if err != nil {
				return err
			}

			rgb[i] = v
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.SetRGBLED(ctx, rgb[0], rgb[1], rgb[2], ledPersist); err != nil {
				return fmt.Errorf("set led: %w", err)
			}

			return nil
		})
	},
}

var backledCmd = &cobra.Command{
	Use:   "backled BRIGHTNESS",
	Short: "Set the tail light brightness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		brightness, err := parseByteArg("brightness", args[0])
		if err != nil {
			return err
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.SetBackLED(ctx, brightness); err != nil {
				return fmt.Errorf("set back led: %w", err)
			}

			return nil
		})
	},
}

var headingCmd = &cobra.Command{
	Use:   "heading DEGREES",
	Short: "Rotate to a heading and make it the new zero",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		heading, err := parseHeadingArg(args[0])
		if err != nil {
			return err
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.SetHeading(ctx, heading); err != nil {
				return fmt.Errorf("set heading: %w", err)
			}

			return nil
		})
	},
}

var rollCmd = &cobra.Command{
	Use:   "roll SPEED HEADING",
	Short: "Drive toward a heading",
	Long: `Roll drives the robot toward HEADING degrees at SPEED (0-255). The
robot keeps rolling until stopped or until its motion timeout expires.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		speed, err := parseByteArg("speed", args[0])
		if err != nil {
			return err
		}

		heading, err := parseHeadingArg(args[1])
		if err != nil {
			return err
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.Roll(ctx, speed, heading); err != nil {
				return fmt.Errorf("roll: %w", err)
			}

			return nil
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop rolling",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.Stop(ctx); err != nil {
				return fmt.Errorf("stop: %w", err)
			}

			return nil
		})
	},
}

func init() {
	ledCmd.Flags().BoolVar(&ledPersist, "persist", false, "also store the color as the power-up user color")

	rootCmd.AddCommand(ledCmd)
	rootCmd.AddCommand(backledCmd)
	rootCmd.AddCommand(headingCmd)
	rootCmd.AddCommand(rollCmd)
	rootCmd.AddCommand(stopCmd)
}
