package display

import (
	"fmt"
	"io"
	"time"

	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/verify"
)

// MissingFilesStrategy renders the missing files of a verification result.
// Detailed output lists every file; consolidated output collapses fully
// missing directories into wildcards.
type MissingFilesStrategy interface {
	Render(w io.Writer, result *models.VerificationResult)
}

// DetailedDisplay lists each missing file on its own line.
type DetailedDisplay struct{}

// NewDetailedDisplay creates a DetailedDisplay.
func NewDetailedDisplay() *DetailedDisplay {
	return &DetailedDisplay{}
}

// Render writes every missing file, numbered, in red.
func (d *DetailedDisplay) Render(w io.Writer, result *models.VerificationResult) {
	if result == nil || len(result.MissingFiles) == 0 {
		fmt.Fprintf(w, "\x1b[32m✓\x1b[0m All expected files present in archive\n")
		return
	}

	fmt.Fprintf(w, "\x1b[31mMissing files (%d):\x1b[0m\n", len(result.MissingFiles))
	for i, file := range result.MissingFiles {
		fmt.Fprintf(w, "  %d. %s\n", i+1, file)
	}
}

// ConsolidatedDisplay collapses completely missing directories into
// "<dir>/*" wildcard lines, keeping individual entries only for partially
// missing directories.
type ConsolidatedDisplay struct{}

// NewConsolidatedDisplay creates a ConsolidatedDisplay.
func NewConsolidatedDisplay() *ConsolidatedDisplay {
	return &ConsolidatedDisplay{}
}

// Render writes the consolidated missing entries, numbered, in red.
func (c *ConsolidatedDisplay) Render(w io.Writer, result *models.VerificationResult) {
	if result == nil || len(result.MissingFiles) == 0 {
		fmt.Fprintf(w, "\x1b[32m✓\x1b[0m All expected files present in archive\n")
		return
	}

	entries := verify.Consolidate(result.MissingFiles, result.AllExpectedFiles)
	fmt.Fprintf(w, "\x1b[31mMissing entries (%d, consolidated from %d files):\x1b[0m\n",
		len(entries), len(result.MissingFiles))
	for i, entry := range entries {
		fmt.Fprintf(w, "  %d. %s\n", i+1, entry)
	}
}

// RenderFreshness writes a freshness report: outdated files with both
// timestamps, plus counts of up-to-date and unverifiable files.
func RenderFreshness(w io.Writer, result *models.FreshnessResult) {
	if result == nil {
		return
	}

	if len(result.OutdatedFiles) == 0 {
		fmt.Fprintf(w, "\x1b[32m✓\x1b[0m All %d archived files are up to date\n", len(result.UpToDateFiles))
	} else {
		fmt.Fprintf(w, "\x1b[33mOutdated files (%d):\x1b[0m\n", len(result.OutdatedFiles))
		for i, file := range result.OutdatedFiles {
			fmt.Fprintf(w, "  %d. %s\n", i+1, file.Path)
			fmt.Fprintf(w, "     archive:    %s\n", formatTimestamp(file.ArchiveModified))
			fmt.Fprintf(w, "     filesystem: %s\n", formatTimestamp(file.FilesystemModified))
		}
	}

	if len(result.UnverifiableFiles) > 0 {
		fmt.Fprintf(w, "\x1b[33m%d files could not be checked\x1b[0m\n", len(result.UnverifiableFiles))
	}
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}
