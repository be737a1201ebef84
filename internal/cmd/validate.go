package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/pathproc"
	"github.com/harrison/archtree/internal/pattern"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [plan-file]",
		Short: "Resolve a backup plan without archiving anything",
		Long: `Parse a backup plan and resolve its paths, reporting what a run would
archive: files added, paths excluded by wildcard patterns, and paths that do
not exist. No archive is touched and 7-Zip is not invoked.

Exit code: 0 if every input path resolved, 1 if any path was invalid`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planFile := ""
			if len(args) == 1 {
				planFile = args[0]
			}
			listFiles, _ := cmd.Flags().GetBool("list")
			return validatePlan(planFile, listFiles, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("list", false, "List every resolved file")

	return cmd
}

// validatePlan resolves the plan and writes a report to output.
func validatePlan(planFile string, listFiles bool, output io.Writer) error {
	plan, err := readPlan(planFile)
	if err != nil {
		return err
	}

	includePaths, patterns := pathproc.ExtractExclusionPatterns(plan.Lines)
	matcher, err := pattern.Compile(patterns)
	if err != nil {
		return fmt.Errorf("invalid exclusion pattern: %w", err)
	}

	progress := display.NewProgressIndicator(output, len(includePaths))
	progress.Start()
	for _, path := range includePaths {
		progress.Step(path)
	}

	var excluded, invalid int
	var invalidPaths []string
	files, err := pathproc.New(includePaths, matcher).Process(func(event models.PathEvent) {
		switch event.Status {
		case models.StatusExcluded:
			excluded++
		case models.StatusInvalid:
			invalid++
			invalidPaths = append(invalidPaths, event.Path)
		}
	})
	if err != nil {
		return err
	}
	progress.Complete(len(files))

	patternList := matcher.Patterns()
	fmt.Fprintf(output, "\nPlan summary:\n")
	fmt.Fprintf(output, "  Input paths: %d\n", len(includePaths))
	fmt.Fprintf(output, "  Exclusion patterns: %d\n", len(patternList))
	fmt.Fprintf(output, "  Files to archive: %d\n", len(files))
	fmt.Fprintf(output, "  Excluded: %d\n", excluded)
	fmt.Fprintf(output, "  Invalid: %d\n", invalid)

	if listFiles {
		if len(patternList) > 0 {
			fmt.Fprintf(output, "\nExclusion patterns:\n")
			for _, p := range patternList {
				fmt.Fprintf(output, "  !%s\n", p)
			}
		}
		fmt.Fprintf(output, "\nResolved files:\n")
		for _, file := range pathproc.SortedCopy(files) {
			fmt.Fprintf(output, "  %s\n", file)
		}
	}

	if invalid > 0 {
		display.WarnInvalidPaths(invalidPaths).Display(output)
		return fmt.Errorf("%d input paths are invalid", invalid)
	}
	return nil
}
