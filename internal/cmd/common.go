package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/config"
	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/input"
	"github.com/harrison/archtree/internal/verify"
)

// loadConfigForCommand loads configuration honoring the --config flag, then
// merges the command's archive and verification flags over it. Only flags the
// user actually set override the configuration.
func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var outputPtr, zipPathPtr *string
	var verifyPtr, retryPtr, freshnessPtr *bool

	if cmd.Flags().Changed("output") {
		output, _ := cmd.Flags().GetString("output")
		outputPtr = &output
	}
	if cmd.Flags().Changed("7zip-path") {
		zipPath, _ := cmd.Flags().GetString("7zip-path")
		zipPathPtr = &zipPath
	}
	if cmd.Flags().Changed("verify") {
		v, _ := cmd.Flags().GetBool("verify")
		verifyPtr = &v
	}
	if cmd.Flags().Changed("retry") {
		r, _ := cmd.Flags().GetBool("retry")
		retryPtr = &r
	}
	if cmd.Flags().Changed("check-freshness") {
		f, _ := cmd.Flags().GetBool("check-freshness")
		freshnessPtr = &f
	}

	cfg.MergeWithFlags(outputPtr, zipPathPtr, verifyPtr, retryPtr, freshnessPtr)

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// historyDBPath resolves the history database location. An explicitly
// configured db_path wins; the default is anchored at the archtree home so
// every command in a project shares one database.
func historyDBPath(cfg *config.Config) string {
	if cfg.History.DBPath == config.DefaultHistoryDBPath {
		if resolved, err := config.GetHistoryDBPath(); err == nil {
			return resolved
		}
	}
	return cfg.History.DBPath
}

// readPlan reads the backup plan from the given file, or from standard input
// when planFile is empty.
func readPlan(planFile string) (*input.Plan, error) {
	var reader input.Reader
	if planFile == "" {
		reader = input.NewStdinReader()
	} else {
		reader = input.NewFileReader(planFile)
	}

	plan, err := reader.ReadPlan()
	if err != nil {
		return nil, err
	}
	if len(plan.Lines) == 0 {
		return nil, fmt.Errorf("backup plan is empty")
	}
	return plan, nil
}

// missingStrategy picks the missing-file rendering strategy from the
// --consolidate flag.
func missingStrategy(cmd *cobra.Command) display.MissingFilesStrategy {
	if consolidate, _ := cmd.Flags().GetBool("consolidate"); consolidate {
		return display.NewConsolidatedDisplay()
	}
	return display.NewDetailedDisplay()
}

// verifyEventPrinter returns a verification callback that narrates progress
// on the given writer. quiet disables it entirely.
func verifyEventPrinter(w io.Writer, quiet bool) verify.Callback {
	if quiet {
		return nil
	}
	return func(event verify.Event) {
		switch event.Kind {
		case verify.EventStarting:
			fmt.Fprintf(w, "Verifying archive (%s)...\n", event.Mode)
		case verify.EventListingComplete:
			fmt.Fprintf(w, "  archive listing: %d entries\n", event.EntriesFound)
		case verify.EventComparisonComplete:
			fmt.Fprintf(w, "  compared: %d/%d found, %d missing\n",
				event.Found, event.TotalExpected, event.Missing)
		case verify.EventRetryStarting:
			fmt.Fprintf(w, "Retrying %d missing files...\n", event.FilesToProcess)
		case verify.EventRetryComplete:
			fmt.Fprintf(w, "  re-archived %d files\n", event.FilesProcessed)
		case verify.EventRetryVerified:
			fmt.Fprintf(w, "  after retry: %d/%d found, %d missing\n",
				event.Found, event.TotalExpected, event.Missing)
		case verify.EventFreshnessStarting:
			fmt.Fprintf(w, "Checking archive freshness...\n")
		case verify.EventFreshnessComplete:
			fmt.Fprintf(w, "  freshness: %d outdated, %d up to date, %d unverifiable\n",
				event.Outdated, event.UpToDate, event.Unverifiable)
		case verify.EventUpdatingOutdated:
			fmt.Fprintf(w, "Updating %d outdated files...\n", event.FilesToProcess)
		case verify.EventUpdateComplete:
			fmt.Fprintf(w, "  refreshed %d files\n", event.FilesProcessed)
		case verify.EventComplete:
			fmt.Fprintf(w, "\x1b[32m✓\x1b[0m Archive verified complete\n")
		}
	}
}
