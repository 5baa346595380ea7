package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yairfalse/vigil/internal/collectors"
	"github.com/yairfalse/vigil/internal/collectors/host"
	"github.com/yairfalse/vigil/internal/collectors/netscan"
	"github.com/yairfalse/vigil/internal/engine"
	"github.com/yairfalse/vigil/internal/output"
	"github.com/yairfalse/vigil/internal/probes"
	"github.com/yairfalse/vigil/internal/storage"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one drift-detection pass",
		Long: `Check runs one full engine pass: health probes and fact capture, a diff
against the previous capture per category, alert classification, atomic
publication of the status record, and the retention sweep.

The first pass for any category establishes a baseline and never alerts.
Exit status is 0 regardless of alert count; it is non-zero only when the
status record could not be published at all.`,
		Example: `  # One pass, suitable for cron or a systemd timer
  vigil check --quiet

  # Include the more expensive peer discovery scan
  vigil check --deep`,
		RunE: runCheck,
	}

	cmd.Flags().Bool("quiet", false, "suppress human output (for automated use)")
	cmd.Flags().Bool("deep", false, "also run the discovered-peers collector")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	deep, _ := cmd.Flags().GetBool("deep")

	eng, err := buildEngine()
	if err != nil {
		return err
	}

	result, err := eng.Run(cmd.Context(), deep)
	if err != nil {
		return err
	}

	if !quiet {
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		formatter := output.NewFormatter(noColor || cfg.Output.NoColor)
		fmt.Print(formatter.FormatStatus(result.Record))
		fmt.Println("\nProbes:")
		for _, probe := range result.Probes.Probes {
			fmt.Println(formatter.FormatProbeLine(probe))
		}
	}
	return nil
}

// buildEngine wires one invocation-scoped engine from configuration.
func buildEngine() (*engine.Engine, error) {
	store, err := storage.NewLocalStore(cfg.Storage.BaseDir)
	if err != nil {
		return nil, err
	}

	registry := collectors.NewRegistry()
	registry.Register(host.NewBinaryHashCollector(cfg.Collectors.BinaryList))
	registry.Register(host.NewSUIDCollector(cfg.Collectors.SUIDRoots))
	registry.Register(host.NewUserCollector(cfg.Collectors.PasswdFile, cfg.Collectors.MinUID))
	registry.Register(host.NewAuthKeysCollector(cfg.Collectors.AuthorizedKeys))
	registry.Register(netscan.NewPeerCollector(cfg.Collectors.PeerInterface, cfg.Probes.CommandTimeout))

	return engine.New(engine.Options{
		Registry:  registry,
		Store:     store,
		Publisher: storage.NewAtomicPublisher(cfg.Storage.StatusFile),
		Prober:    probes.NewRunner(cfg.Probes, cfg.Network, log),
		Retention: cfg.Storage.Retention,
		Logger:    log,
	}), nil
}
