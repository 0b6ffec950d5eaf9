package main

import (
	"fmt"
	"syscall"

	"codeberg.org/mutker/framescore/internal/pid"
	"github.com/spf13/cobra"
)

func newBaselineCmd(app *cli) *cobra.Command {
	return newTriggerCmd(app, "baseline", "Save a baseline in the running render loop", syscall.SIGUSR1)
}

func newCompareCmd(app *cli) *cobra.Command {
	return newTriggerCmd(app, "compare", "Print a comparison against the saved baseline", syscall.SIGUSR2)
}

// newTriggerCmd builds a command that signals the instance recorded in the
// PID file. The running instance prints the result on its own terminal.
func newTriggerCmd(app *cli, use, short string, sig syscall.Signal) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pid.Signal(app.cfg.PIDDir, sig); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to the running instance\n", use)
			return nil
		},
	}
}
