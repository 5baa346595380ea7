package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yairfalse/vigil/internal/output"
	"github.com/yairfalse/vigil/internal/storage"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last published status record",
		Long: `Status reads and renders the record the most recent check pass published.
It never runs probes or collectors itself, so it is safe to call from
anything at any frequency.`,
		Example: `  vigil status
  vigil status --output json | jq .alert_count`,
		RunE: runStatus,
	}

	cmd.Flags().StringP("output", "o", "table", "output format (table, json)")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")

	record, err := storage.ReadStatus(cfg.Storage.StatusFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no status record at %s, run 'vigil check' first", cfg.Storage.StatusFile)
		}
		return err
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(record)
	case "table":
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		formatter := output.NewFormatter(noColor || cfg.Output.NoColor)
		fmt.Print(formatter.FormatStatus(record))
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
