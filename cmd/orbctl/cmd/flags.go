package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/orbworks/orbit/device"
	"github.com/spf13/cobra"
)

var flagsTemporary bool

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Read and write the robot's option flags",
	Long: fmt.Sprintf(`Flags reads and writes the robot's option flag bitmaps by symbolic
name. Permanent flags survive power cycles; --temporary targets the
volatile set instead.

Permanent flags: %s
Temporary flags: %s`,
		joinFlagNames(device.PermanentFlagNames()),
		joinFlagNames(device.TemporaryFlagNames())),
}

var flagsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "List the option flags currently set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			var (
				flags []device.OptionFlag
				err   error
			)

			if flagsTemporary {
				flags, err = d.GetTemporaryOptionFlags(ctx)
			} else {
				flags, err = d.GetPermanentOptionFlags(ctx)
			}
			if err != nil {
				return fmt.Errorf("get option flags: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(flags) == 0 {
				fmt.Fprintln(out, "(none)")

				return nil
			}

			for _, f := range flags {
				fmt.Fprintln(out, string(f))
			}

			return nil
		})
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set [NAME...]",
	Short: "Replace the option flags with exactly the named set",
	Long: `Set replaces the whole bitmap: flags not named are cleared. With no
names every flag is cleared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := make([]device.OptionFlag, len(args))
		for i, arg := range args {
			flags[i] = device.OptionFlag(strings.ToLower(arg))
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			var err error
			if flagsTemporary {
				err = d.SetTemporaryOptionFlags(ctx, flags...)
			} else {
				err = d.SetPermanentOptionFlags(ctx, flags...)
			}
			if err != nil {
				return fmt.Errorf("set option flags: %w", err)
			}

			return nil
		})
	},
}

func joinFlagNames(names []device.OptionFlag) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = string(name)
	}

	return strings.Join(parts, ", ")
}

func init() {
	flagsCmd.PersistentFlags().BoolVar(&flagsTemporary, "temporary", false, "target the volatile flag set")

	flagsCmd.AddCommand(flagsGetCmd)
	flagsCmd.AddCommand(flagsSetCmd)
	rootCmd.AddCommand(flagsCmd)
}
