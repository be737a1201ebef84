// Package input reads backup plans: the ordered list of include paths and
// exclusion patterns that defines one backup set.
//
// Three formats are supported: plain text (one path per line), Markdown
// (paths in list items and fenced code blocks) and YAML manifests. Format is
// auto-detected from the file extension; standard input is always plain text.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Plan is a parsed backup plan: the raw input lines (include paths and
// !-prefixed exclusion patterns) in source order, plus an optional output
// archive path when the format can carry one.
type Plan struct {
	// Output is the archive path declared by the plan, empty when the
	// format carries no output location
	Output string
	// Lines are the raw input lines in source order
	Lines []string
}

// Reader is the interface for backup plan sources.
type Reader interface {
	// ReadPlan reads and parses the backup plan from the source
	ReadPlan() (*Plan, error)
}

// Format represents the format of a plan file
type Format int

const (
	// FormatText represents a plain text plan (one path per line)
	FormatText Format = iota
	// FormatMarkdown represents a Markdown (.md, .markdown) plan file
	FormatMarkdown
	// FormatYAML represents a YAML (.yaml, .yml) plan file
	FormatYAML
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// DetectFormat detects the plan format from the file extension. Unknown
// extensions fall back to plain text.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// FileReader reads a backup plan from a file, auto-detecting its format.
type FileReader struct {
	path string
}

// NewFileReader creates a FileReader for the given plan file.
func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

// ReadPlan opens and parses the plan file.
func (r *FileReader) ReadPlan() (*Plan, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", r.path, err)
	}
	defer file.Close()

	switch DetectFormat(r.path) {
	case FormatMarkdown:
		return parseMarkdown(file)
	case FormatYAML:
		return parseYAML(file)
	default:
		return parseText(file)
	}
}

// StdinReader reads a plain text backup plan from standard input.
type StdinReader struct{}

// NewStdinReader creates a StdinReader.
func NewStdinReader() *StdinReader {
	return &StdinReader{}
}

// ReadPlan reads lines from standard input until EOF.
func (r *StdinReader) ReadPlan() (*Plan, error) {
	return parseText(os.Stdin)
}

// SliceReader serves a plan from an in-memory line list. Useful for testing.
type SliceReader struct {
	lines []string
}

// NewSliceReader creates a SliceReader over the given lines.
func NewSliceReader(lines []string) *SliceReader {
	return &SliceReader{lines: lines}
}

// ReadPlan returns the in-memory lines, trimmed, with empties dropped.
func (r *SliceReader) ReadPlan() (*Plan, error) {
	plan := &Plan{}
	for _, line := range r.lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			plan.Lines = append(plan.Lines, trimmed)
		}
	}
	return plan, nil
}

// parseText reads one path or pattern per line, trimming whitespace and
// dropping empty lines and '#' comments.
func parseText(r io.Reader) (*Plan, error) {
	plan := &Plan{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		plan.Lines = append(plan.Lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input lines: %w", err)
	}
	return plan, nil
}
