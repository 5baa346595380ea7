package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yairfalse/vigil/internal/storage"
	"github.com/yairfalse/vigil/pkg/types"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent snapshots per category",
		Long: `History lists the most recent persisted snapshots, newest first. This is
the raw material the differ works from; a capture marked failed appears
here too, which is why a gap in alerts is distinguishable from a quiet
host.`,
		Example: `  vigil history
  vigil history --category authkeys --limit 10 --entries`,
		RunE: runHistory,
	}

	cmd.Flags().String("category", "", "restrict to one category (binaries, suid, users, authkeys, peers)")
	cmd.Flags().Int("limit", 5, "snapshots per category")
	cmd.Flags().Bool("entries", false, "print captured entries, not just counts")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	categoryFlag, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	showEntries, _ := cmd.Flags().GetBool("entries")

	if limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", limit)
	}

	selected := types.Categories()
	if categoryFlag != "" {
		category := types.Category(strings.ToLower(categoryFlag))
		if !knownCategory(category) {
			return fmt.Errorf("unknown category: %s", categoryFlag)
		}
		selected = []types.Category{category}
	}

	store, err := storage.NewLocalStore(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}

	for _, category := range selected {
		snapshots, err := store.Latest(category, limit)
		if err != nil {
			return err
		}

		fmt.Printf("%s:\n", category)
		if len(snapshots) == 0 {
			fmt.Println("  (no snapshots)")
			continue
		}
		for _, snapshot := range snapshots {
			when := snapshot.CapturedAt.Format("2006-01-02 15:04:05 MST")
			if snapshot.CollectionFailed {
				fmt.Printf("  %s  collection failed\n", when)
				continue
			}
			fmt.Printf("  %s  %d entries\n", when, len(snapshot.Entries))
			if showEntries {
				for _, entry := range types.SortedCopy(snapshot.Entries) {
					fmt.Printf("    %s\n", entry)
				}
			}
		}
	}
	return nil
}

func knownCategory(c types.Category) bool {
	for _, known := range types.Categories() {
		if c == known {
			return true
		}
	}
	return false
}
