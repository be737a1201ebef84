package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for archtree
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archtree",
		Short: "Path-based backup tool built on 7-Zip",
		Long: `Archtree archives file trees with 7-Zip and verifies the result.

It reads a backup plan (plain text, Markdown or YAML), expands directories
into files while honoring wildcard exclusion patterns, invokes 7-Zip to
create or update a zip archive, and can verify the archive contents against
the expected file set, retry missing files and check timestamp freshness.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewVerifyCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
