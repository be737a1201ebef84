package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/backup"
	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/logger"
	"github.com/harrison/archtree/internal/sevenzip"
	"github.com/harrison/archtree/internal/verify"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <archive> [plan-file]",
		Short: "Verify an existing archive against a backup plan",
		Long: `Verify that every file a backup plan expects is present in an archive.

The plan is re-expanded against the current filesystem, the archive listing
is parsed, and the two sets are compared. Files are matched by normalized
path, falling back to a case-insensitive filename match for entries 7-Zip
stored under a different path shape.

With --retry, missing files that still exist on disk are re-archived and the
archive is verified a second time. With --check-freshness, archived
timestamps are compared against the filesystem with a small tolerance for
zip timestamp rounding.

Exit code: 0 if the archive is complete, 1 otherwise.

Examples:
  archtree verify docs.zip plan.txt
  archtree verify docs.zip plan.txt --retry
  archtree verify docs.zip plan.txt --check-freshness --update-outdated
  find /data -type d | archtree verify docs.zip --consolidate`,
		Args: cobra.RangeArgs(1, 2),
		RunE: verifyCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .archtree/config.yaml)")
	cmd.Flags().String("7zip-path", "", "Path to the 7-Zip executable")
	cmd.Flags().Bool("retry", false, "Re-archive missing files that still exist on disk")
	cmd.Flags().Bool("check-freshness", false, "Compare archive timestamps against the filesystem")
	cmd.Flags().Bool("update-outdated", false, "Re-archive files the freshness check found outdated")
	cmd.Flags().Bool("consolidate", false, "Collapse fully missing directories into wildcards")
	cmd.Flags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")

	return cmd
}

// verifyCommand implements the verify command logic
func verifyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	archivePath := args[0]
	planFile := ""
	if len(args) == 2 {
		planFile = args[1]
	}

	plan, err := readPlan(planFile)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	retry, _ := cmd.Flags().GetBool("retry")
	checkFreshness, _ := cmd.Flags().GetBool("check-freshness")
	updateOutdated, _ := cmd.Flags().GetBool("update-outdated")

	out := cmd.OutOrStdout()
	logLevel := cfg.LogLevel
	if quiet {
		logLevel = "error"
	}
	log := logger.NewConsoleLogger(out, logLevel)

	if !quiet {
		display.DisplaySingleArchive(out, "Verifying", archivePath)
	}

	tool := sevenzip.WithPath(cfg.SevenZipPath)
	tool.Warnf = func(format string, args ...interface{}) {
		log.LogWarn(fmt.Sprintf(format, args...))
	}
	verifier := verify.NewService(tool, tool, verifyEventPrinter(out, quiet))
	service := backup.NewService(tool, verifier, log)

	summary, err := service.VerifyOnly(cmd.Context(), plan.Lines, backup.Options{
		ArchivePath:    archivePath,
		PlanFile:       planFile,
		Retry:          retry,
		CheckFreshness: checkFreshness,
		UpdateOutdated: updateOutdated,
	})
	if err != nil {
		return err
	}

	missingStrategy(cmd).Render(out, summary.Verification)
	if summary.Freshness != nil {
		display.RenderFreshness(out, summary.Freshness)
	}

	if !summary.Verification.IsComplete() {
		return fmt.Errorf("archive incomplete: %d files missing", len(summary.Verification.MissingFiles))
	}
	return nil
}
