package cmd

import (
	"context"
	"fmt"

	"github.com/orbworks/orbit/device"
	"github.com/spf13/cobra"
)

var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Run stored macros",
}

var macroRunCmd = &cobra.Command{
	Use:   "run ID",
	Short: "Start the stored macro with the given id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseByteArg("macro id", args[0])
		if err != nil {
			return err
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.RunMacro(ctx, id); err != nil {
				return fmt.Errorf("run macro: %w", err)
			}

			return nil
		})
	},
}

func init() {
	macroCmd.AddCommand(macroRunCmd)
	rootCmd.AddCommand(macroCmd)
}
