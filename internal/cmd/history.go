package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [archive]",
		Short: "Show recorded backup runs",
		Long: `List backup runs recorded in the history database, most recent first.

With an archive argument, only runs against that archive are shown.

Examples:
  archtree history
  archtree history /backups/docs.zip
  archtree history --limit 5
  archtree history --prune 30`,
		Args: cobra.MaximumNArgs(1),
		RunE: historyCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .archtree/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	cmd.Flags().Int("prune", 0, "Delete runs older than this many days before listing")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled in configuration")
	}

	store, err := history.NewStore(historyDBPath(cfg))
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if pruneDays, _ := cmd.Flags().GetInt("prune"); pruneDays > 0 {
		deleted, err := store.Prune(ctx, pruneDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d runs older than %d days\n", deleted, pruneDays)
	}

	limit, _ := cmd.Flags().GetInt("limit")

	var runs []*history.Run
	if len(args) == 1 {
		latest, lerr := store.LatestRun(ctx, args[0])
		if lerr != nil {
			return lerr
		}
		if latest != nil {
			status := "incomplete"
			if latest.Complete {
				status = "complete"
			}
			fmt.Fprintf(out, "Last run: %s (%s, %.1f%% matched)\n\n",
				latest.StartedAt.Local().Format("2006-01-02 15:04:05"), status, latest.SuccessRate)
		}
		runs, err = store.GetRuns(ctx, args[0])
	} else {
		runs, err = store.ListRecent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs")
		return nil
	}

	if len(args) == 1 && limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	printRuns(out, runs)
	return nil
}

// printRuns renders run records as an aligned table.
func printRuns(out io.Writer, runs []*history.Run) {
	fmt.Fprintf(out, "%-20s %-40s %8s %8s %8s  %s\n",
		"STARTED", "ARCHIVE", "MATCHED", "MISSING", "RATE", "STATUS")
	for _, run := range runs {
		status := "incomplete"
		if run.Complete {
			status = "complete"
		}
		fmt.Fprintf(out, "%-20s %-40s %8d %8d %7.1f%%  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(run.ArchivePath, 40),
			run.Matched,
			run.Missing,
			run.SuccessRate,
			status)
	}
}

// truncate shortens s to max characters, keeping the tail. Slicing on runes
// so a multi-byte character in an archive path is never split.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return "..." + string(runes[len(runes)-(max-3):])
}
