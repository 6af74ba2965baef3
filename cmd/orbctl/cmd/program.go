package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/orbworks/orbit/device"
	"github.com/spf13/cobra"
)

var (
	programArea string
	programRun  bool
)

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Load and run stored programs",
}

var programLoadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Erase a storage area and load program text into it",
	Long: `Load erases the target storage area and streams the program file into
it fragment by fragment. With --run the program is started at line 1
once the upload completes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		area, err := parseProgramArea(programArea)
		if err != nil {
			return err
		}

		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read program: %w", err)
		}

		return withDriver(cmd, func(ctx context.Context, d *device.Driver) error {
			if err := d.LoadProgram(ctx, area, string(text)); err != nil {
				return fmt.Errorf("load program: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d bytes into %s\n", len(text), programArea)

			if !programRun {
				return nil
			}

			if err := d.ExecuteProgram(ctx, area, 1); err != nil {
				return fmt.Errorf("execute program: %w", err)
			}

			return nil
		})
	},
}

func parseProgramArea(name string) (byte, error) {
	switch name {
	case "ram":
		return device.ProgramAreaRAM, nil
	case "flash":
		return device.ProgramAreaFlash, nil
	}

	return 0, fmt.Errorf("program area must be ram or flash, got %q", name)
}

func init() {
	programLoadCmd.Flags().StringVar(&programArea, "area", "ram", "storage area: ram or flash")
	programLoadCmd.Flags().BoolVar(&programRun, "run", false, "start the program after loading")

	programCmd.AddCommand(programLoadCmd)
	rootCmd.AddCommand(programCmd)
}
