package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/orbworks/orbit/device"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify the robot responds on the link",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			start := time.Now()
			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "link ok (%s)\n", time.Since(start).Round(time.Millisecond))

			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the robot's firmware versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			v, err := d.GetVersion(ctx)
			if err != nil {
				return fmt.Errorf("get version: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model:      0x%02X\n", v.Model)
			fmt.Fprintf(out, "hardware:   %d\n", v.Hardware)
			fmt.Fprintf(out, "firmware:   %s\n", v.MainApp())
			fmt.Fprintf(out, "bootloader: %s\n", v.Bootloader)
			fmt.Fprintf(out, "basic:      %s\n", v.BasicVersion)
			fmt.Fprintf(out, "macro:      %s\n", v.MacroVersion)

			return nil
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the robot's name and radio identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			info, err := d.GetBluetoothInfo(ctx)
			if err != nil {
				return fmt.Errorf("get bluetooth info: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:    %s\n", info.Name)
			fmt.Fprintf(out, "address: %s\n", info.Address)
			fmt.Fprintf(out, "colors:  %02X %02X %02X\n", info.IDColors[0], info.IDColors[1], info.IDColors[2])

			return nil
		})
	},
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Show the robot's battery state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			p, err := d.GetPowerState(ctx)
			if err != nil {
				return fmt.Errorf("get power state: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state:   %s\n", p.State)
			fmt.Fprintf(out, "voltage: %.2fV\n", p.Voltage())
			fmt.Fprintf(out, "charges: %d\n", p.ChargeCount)
			fmt.Fprintf(out, "last charge: %ds ago\n", p.SecondsSinceCharge)

			return nil
		})
	},
}

var sleepWakeup uint16

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Put the robot to sleep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.Sleep(ctx, sleepWakeup, 0, 0); err != nil {
				return fmt.Errorf("sleep: %w", err)
			}

			return nil
		})
	},
}

var diagCounters bool

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Run the robot's diagnostics",
	Long: `Diag prints the robot's self test report. With --counters it reads
the link and usage counter record instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			out := cmd.OutOrStdout()

			if diagCounters {
				c, err := d.RunLevel2Diagnostics(ctx)
				if err != nil {
					return fmt.Errorf("level 2 diagnostics: %w", err)
				}

				fmt.Fprintf(out, "rx good:          %d\n", c.RxGood)
				fmt.Fprintf(out, "rx bad device id: %d\n", c.RxBadDeviceID)
				fmt.Fprintf(out, "rx bad length:    %d\n", c.RxBadLength)
				fmt.Fprintf(out, "rx bad command:   %d\n", c.RxBadCommand)
				fmt.Fprintf(out, "rx bad checksum:  %d\n", c.RxBadChecksum)
				fmt.Fprintf(out, "rx overruns:      %d\n", c.RxOverruns)
				fmt.Fprintf(out, "tx sent:          %d\n", c.TxSent)
				fmt.Fprintf(out, "tx overruns:      %d\n", c.TxOverruns)
				fmt.Fprintf(out, "charges:          %d\n", c.ChargeCount)
				fmt.Fprintf(out, "time on:          %s\n", time.Duration(c.SecondsOn)*time.Second)
				fmt.Fprintf(out, "distance rolled:  %d\n", c.DistanceRolled)
				fmt.Fprintf(out, "gyro adjusts:     %d\n", c.GyroAdjustCount)

				return nil
			}

			report, err := d.RunLevel1Diagnostics(ctx)
			if err != nil {
				return fmt.Errorf("level 1 diagnostics: %w", err)
			}

			fmt.Fprint(out, report)

			return nil
		})
	},
}

func init() {
	sleepCmd.Flags().Uint16Var(&sleepWakeup, "wakeup", 0, "seconds until the robot reawakes on its own (0 sleeps until tapped)")
	diagCmd.Flags().BoolVar(&diagCounters, "counters", false, "print the counter record instead of the self test report")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(sleepCmd)
	rootCmd.AddCommand(diagCmd)
}
