package display

import (
	"fmt"
	"io"
	"path/filepath"
)

// ProgressIndicator manages multi-step progress display with ANSI colors
type ProgressIndicator struct {
	writer     io.Writer
	totalPaths int
	current    int
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		totalPaths: total,
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "Processing input paths:\n")
}

// Step displays progress for the current path: [N/Total] basename (cyan)
func (p *ProgressIndicator) Step(path string) {
	p.current++
	basename := filepath.Base(path)
	fmt.Fprintf(p.writer, "\x1b[36m  [%d/%d] %s\x1b[0m\n", p.current, p.totalPaths, basename)
}

// Complete displays a success message with green checkmark
func (p *ProgressIndicator) Complete(fileCount int) {
	fmt.Fprintf(p.writer, "\x1b[32m✓\x1b[0m Resolved %d files from %d input paths\n", fileCount, p.totalPaths)
}

// DisplaySingleArchive announces the archive a command is about to act on,
// e.g. "Archiving to" for a backup run or "Verifying" for verification.
func DisplaySingleArchive(w io.Writer, action, archivePath string) {
	fmt.Fprintf(w, "%s %s...\n", action, archivePath)
}
