package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run drift-detection passes on an interval",
		Long: `Watch runs one engine pass immediately, then repeats on a fixed interval
until interrupted. Each pass is independent: a collector or probe failure
in one pass does not stop the loop, and the next pass starts from the
artifacts the previous one left behind.

Only an unpublishable status record ends the loop with an error.`,
		Example: `  # Check every five minutes (the default)
  vigil watch

  # Tighter loop with peer discovery on every pass
  vigil watch --interval 1m --deep`,
		RunE: runWatch,
	}

	cmd.Flags().Duration("interval", 0, "time between passes (default from config)")
	cmd.Flags().Bool("deep", false, "also run the discovered-peers collector each pass")
	cmd.Flags().Bool("quiet", false, "suppress per-pass summaries")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	deep, _ := cmd.Flags().GetBool("deep")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if interval == 0 {
		interval = cfg.Watch.Interval
	}
	if interval < 5*time.Second {
		return fmt.Errorf("interval must be at least 5s, got %s", interval)
	}

	eng, err := buildEngine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("interval", interval.String()).Info("watch loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := eng.Run(ctx, deep)
		if err != nil {
			// Run fails soft on everything except publication.
			return err
		}
		if !quiet {
			log.WithFields(map[string]interface{}{
				"alerts":  result.Record.AlertCount,
				"network": string(result.Record.NetworkState),
			}).Info("pass complete")
		}

		select {
		case <-ctx.Done():
			log.Info("watch loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
