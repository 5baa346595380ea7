package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yairfalse/vigil/internal/netup"
	"github.com/yairfalse/vigil/pkg/types"
)

func newNetupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netup",
		Short: "Bring the network up through the escalation ladder",
		Long: `Netup walks the cascading bring-up ladder for the configured interface:
link up, then the managed stack, then low-level association, then a
service restart, re-checking connectivity after each rung. Every step is
idempotent, so running netup on an already-connected host exits
immediately without touching anything.

The default mode is first-boot provisioning: on reaching a terminal
state it removes the trigger marker so the next boot skips the run. With
--watchdog it instead compares the outcome against the previously
persisted state and logs only transitions; a steady connected host stays
silent.`,
		Example: `  # First-boot provisioning (removes the trigger marker when done)
  vigil netup

  # Periodic supervision from a timer
  vigil netup --watchdog --quiet`,
		RunE: runNetup,
	}

	cmd.Flags().Bool("watchdog", false, "supervise an already-provisioned host")
	cmd.Flags().Bool("quiet", false, "suppress the final state line")

	return cmd
}

func runNetup(cmd *cobra.Command, args []string) error {
	watchdog, _ := cmd.Flags().GetBool("watchdog")
	quiet, _ := cmd.Flags().GetBool("quiet")

	machine := netup.New(cfg.Network, log)

	var (
		state types.NetworkState
		err   error
	)
	if watchdog {
		state, err = machine.Watchdog(cmd.Context())
	} else {
		state, err = machine.FirstBoot(cmd.Context())
	}
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Println(string(state))
	}
	return nil
}
