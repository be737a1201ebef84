package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/backup"
	"github.com/harrison/archtree/internal/config"
	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/history"
	"github.com/harrison/archtree/internal/logger"
	"github.com/harrison/archtree/internal/sevenzip"
	"github.com/harrison/archtree/internal/verify"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [plan-file]",
		Short: "Archive the paths listed in a backup plan",
		Long: `Archive the paths listed in a backup plan into a zip archive via 7-Zip.

The plan is read from the given file (plain text, Markdown or YAML, detected
by extension) or from standard input when no file is given. Lines starting
with '!' are wildcard exclusion patterns; all other lines are files or
directories to archive. Directories are expanded recursively.

If the target archive already exists it is updated in place, otherwise it is
created. Configuration is loaded from .archtree/config.yaml if present; CLI
flags override configuration file settings.

Examples:
  # Archive a plan file into the configured output
  archtree run plan.txt

  # Read the plan from stdin and name the archive explicitly
  find /data -name '*.md' | archtree run --output docs.zip

  # Archive, verify, and retry anything 7-Zip missed
  archtree run plan.md --output docs.zip --verify --retry

  # Also refresh files whose archived copies are stale
  archtree run plan.yaml --verify --check-freshness --update-outdated`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .archtree/config.yaml)")
	cmd.Flags().StringP("output", "o", "", "Archive path to create or update")
	cmd.Flags().String("7zip-path", "", "Path to the 7-Zip executable")
	cmd.Flags().Bool("verify", false, "Verify the archive contents after archiving")
	cmd.Flags().Bool("retry", false, "Re-archive missing files found by verification")
	cmd.Flags().Bool("check-freshness", false, "Compare archive timestamps against the filesystem")
	cmd.Flags().Bool("update-outdated", false, "Re-archive files the freshness check found outdated")
	cmd.Flags().Bool("consolidate", false, "Collapse fully missing directories into wildcards")
	cmd.Flags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}
	retryFlag, _ := cmd.Flags().GetBool("retry")
	if retryFlag && !cfg.Verify {
		// --retry implies --verify; a lone --retry would otherwise fail
		// config validation
		cfg.Verify = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	updateOutdated, _ := cmd.Flags().GetBool("update-outdated")

	planFile := ""
	if len(args) == 1 {
		planFile = args[0]
	}
	plan, err := readPlan(planFile)
	if err != nil {
		return err
	}

	archivePath := cfg.Output
	if plan.Output != "" && !cmd.Flags().Changed("output") {
		archivePath = plan.Output
	}

	out := cmd.OutOrStdout()
	logLevel := cfg.LogLevel
	if quiet {
		logLevel = "error"
	}
	var log logger.Logger = logger.NewConsoleLogger(out, logLevel)
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.LogWarn(fmt.Sprintf("run log disabled: %v", err))
	} else {
		defer fileLog.Close()
		log = logger.NewMultiLogger(log, fileLog)
	}

	if !quiet {
		display.DisplaySingleArchive(out, "Archiving to", archivePath)
	}

	tool := sevenzip.WithPath(cfg.SevenZipPath)
	tool.Warnf = func(format string, args ...interface{}) {
		log.LogWarn(fmt.Sprintf(format, args...))
	}
	verifier := verify.NewService(tool, tool, verifyEventPrinter(out, quiet))
	service := backup.NewService(tool, verifier, log)

	summary, err := service.Run(cmd.Context(), plan.Lines, backup.Options{
		ArchivePath:    archivePath,
		PlanFile:       planFile,
		Verify:         cfg.Verify,
		Retry:          cfg.Retry,
		CheckFreshness: cfg.CheckFreshness,
		UpdateOutdated: updateOutdated,
	})
	if err != nil {
		return err
	}

	if len(summary.InvalidPaths) > 0 && !quiet {
		display.WarnInvalidPaths(summary.InvalidPaths).Display(cmd.ErrOrStderr())
	}

	if summary.Verification != nil {
		missingStrategy(cmd).Render(out, summary.Verification)
	}
	if summary.Freshness != nil {
		display.RenderFreshness(out, summary.Freshness)
	}

	recordRun(cmd.Context(), cfg, summary, log)
	if fileLog != nil {
		fileLog.LogRunComplete(summary.ArchivePath, summary.Duration)
	}

	if summary.Verification != nil && !summary.Verification.IsComplete() {
		return fmt.Errorf("archive incomplete: %d files missing", len(summary.Verification.MissingFiles))
	}
	return nil
}

// recordRun persists the run to the history database when history is enabled.
// History failures are logged, never fatal: a backup that succeeded should
// not report an error because bookkeeping failed.
func recordRun(ctx context.Context, cfg *config.Config, summary *backup.Summary, log logger.Logger) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.NewStore(historyDBPath(cfg))
	if err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return
	}
	defer store.Close()

	run := history.NewRun(summary.ArchivePath, summary.PlanFile, summary.StartedAt, summary.Duration, summary.Verification)
	if err := store.RecordRun(ctx, run); err != nil {
		log.LogWarn(fmt.Sprintf("failed to record run history: %v", err))
		return
	}

	if _, err := store.Prune(ctx, cfg.History.KeepRunsDays); err != nil {
		log.LogWarn(fmt.Sprintf("failed to prune run history: %v", err))
	}
}
