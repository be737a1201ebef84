// Package sevenzip drives the external 7-Zip binary: creating and updating
// archives, probing availability and parsing the technical listing back into
// typed entries.
package sevenzip

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/harrison/archtree/internal/filelock"
	"github.com/harrison/archtree/internal/models"
)

// DefaultExecutable is the 7-Zip binary name resolved through PATH.
const DefaultExecutable = "7z"

// ToolError describes a failed 7-Zip invocation, carrying captured output
// for diagnosis.
type ToolError struct {
	Tool    string
	Message string
	Stdout  string
	Stderr  string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("external tool error (%s): %s", e.Tool, e.Message)
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	if e.Stdout != "" {
		msg += "\nstdout: " + e.Stdout
	}
	return msg
}

// SevenZip invokes the 7-Zip binary for archive operations. It follows the
// http.Client pattern: create once, use many times. Safe for concurrent use.
type SevenZip struct {
	// ExecutablePath is the path to the 7z binary. Defaults to "7z"
	// (found in PATH) when empty.
	ExecutablePath string

	// Warnf receives diagnostics about degraded tool output, such as a
	// listing that had to be decoded lossily. Nil disables warning output.
	Warnf func(format string, args ...interface{})
}

// New creates a SevenZip using the binary found in PATH.
func New() *SevenZip {
	return &SevenZip{ExecutablePath: DefaultExecutable}
}

// WithPath creates a SevenZip using an explicit binary path.
func WithPath(executablePath string) *SevenZip {
	if executablePath == "" {
		return New()
	}
	return &SevenZip{ExecutablePath: executablePath}
}

// Name returns the tool name for display purposes.
func (s *SevenZip) Name() string {
	return "7-Zip"
}

func (s *SevenZip) executable() string {
	if s.ExecutablePath == "" {
		return DefaultExecutable
	}
	return s.ExecutablePath
}

// IsAvailable probes for the 7-Zip binary by asking it for help output.
func (s *SevenZip) IsAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, s.executable(), "--help")
	return cmd.Run() == nil
}

// Create builds a new archive at outputPath containing the given paths.
// The path list is handed to 7-Zip through a temporary list file so long
// backup sets do not overflow the command line.
func (s *SevenZip) Create(ctx context.Context, paths []string, outputPath string) error {
	listFile, cleanup, err := writeListFile(paths, "7zip_list")
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{
		"a",         // add to archive
		"-spf",      // store full paths
		"-sccUTF-8", // force UTF-8 console output
		"-tzip",
		outputPath,
		"@" + listFile,
	}
	return s.run(ctx, "create archive", args)
}

// Update adds or refreshes the given paths in an existing archive.
func (s *SevenZip) Update(ctx context.Context, paths []string, archivePath string) error {
	resolved, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("failed to resolve archive path %q: %w", archivePath, err)
	}

	listFile, cleanup, err := writeListFile(paths, "7zip_add_list")
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{
		"u", // update archive, adding entries that do not exist yet
		"-spf",
		"-sccUTF-8",
		"-tzip",
		resolved,
		"@" + listFile,
	}
	return s.run(ctx, "update archive", args)
}

// ListEntries runs the technical listing and parses it into archive entries.
// UTF-8 output is requested from the tool; if the captured bytes still are
// not valid UTF-8 they are decoded lossily rather than failing the listing.
func (s *SevenZip) ListEntries(ctx context.Context, archivePath string) ([]models.ArchiveEntry, error) {
	resolved, err := filepath.Abs(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path %q: %w", archivePath, err)
	}

	cmd := exec.CommandContext(ctx, s.executable(), "l", "-slt", "-sccUTF-8", resolved)
	stdout, err := cmd.Output()
	if err != nil {
		return nil, &ToolError{
			Tool:    s.Name(),
			Message: fmt.Sprintf("list command failed: %v", err),
			Stderr:  exitStderr(err),
		}
	}

	return ParseListing(s.decodeListing(stdout, resolved), resolved), nil
}

// decodeListing converts raw listing bytes to a string, warning when the
// lossy fallback fires: replacement characters in filenames make those
// entries unmatchable, so the resulting missing-file report is suspect.
func (s *SevenZip) decodeListing(raw []byte, archivePath string) string {
	listing, strict := DecodeOutput(raw)
	if !strict {
		s.warnf("listing of %s contained invalid UTF-8 and was decoded lossily; affected filenames may be reported missing", archivePath)
	}
	return listing
}

func (s *SevenZip) warnf(format string, args ...interface{}) {
	if s.Warnf != nil {
		s.Warnf(format, args...)
	}
}

// run executes a 7-Zip command, converting a non-zero exit into a ToolError
// with captured output.
func (s *SevenZip) run(ctx context.Context, action string, args []string) error {
	cmd := exec.CommandContext(ctx, s.executable(), args...)
	stdout, err := cmd.Output()
	if err != nil {
		return &ToolError{
			Tool:    s.Name(),
			Message: fmt.Sprintf("%s failed: %v", action, err),
			Stdout:  string(stdout),
			Stderr:  exitStderr(err),
		}
	}
	return nil
}

// exitStderr extracts captured stderr from an exec error, if present.
func exitStderr(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return string(exitErr.Stderr)
	}
	return ""
}

// writeListFile writes one path per line to a temporary file and returns its
// path along with a cleanup function. The file is written atomically: 7-Zip
// reading a partially written list would silently archive a subset of the
// backup set.
func writeListFile(paths []string, prefix string) (string, func(), error) {
	content := ""
	for _, path := range paths {
		content += path + "\n"
	}

	name := filepath.Join(os.TempDir(), fmt.Sprintf("%s_%s.txt", prefix, uuid.NewString()))
	if err := filelock.AtomicWrite(name, []byte(content)); err != nil {
		return "", nil, fmt.Errorf("failed to write path list file: %w", err)
	}
	return name, func() { os.Remove(name) }, nil
}
