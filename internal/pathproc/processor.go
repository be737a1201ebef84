// Package pathproc turns raw backup input lines into a canonical, deduplicated
// list of absolute file paths.
//
// Processing order is exclude-then-validate-then-expand: an input path that
// matches an exclusion pattern is skipped before any filesystem access, so
// excluded directory trees are never walked. Files discovered during directory
// expansion are filtered against the same patterns individually.
package pathproc

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/pattern"
)

// EventFunc receives one status report per processed path, in traversal order.
type EventFunc func(event models.PathEvent)

// Processor expands and deduplicates backup input paths. It is built once per
// run and not safe for concurrent use.
type Processor struct {
	includePaths []string
	matcher      *pattern.Matcher

	// Warnf receives non-fatal traversal warnings (unreadable
	// subdirectories). Nil disables warning output.
	Warnf func(format string, args ...interface{})

	seen map[string]struct{}
}

// ExtractExclusionPatterns separates raw input lines into include paths and
// exclusion patterns. A line starting with '!' contributes its remainder to
// the patterns; all other non-empty lines are include paths. Relative order
// is preserved on both sides.
func ExtractExclusionPatterns(lines []string) (includePaths []string, patterns []string) {
	for _, line := range lines {
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "!"); ok {
			patterns = append(patterns, rest)
		} else {
			includePaths = append(includePaths, line)
		}
	}
	return includePaths, patterns
}

// New creates a Processor for the given include paths and compiled matcher.
// A matcher without patterns is dropped so per-file matching short-circuits.
func New(includePaths []string, matcher *pattern.Matcher) *Processor {
	if matcher != nil && matcher.Empty() {
		matcher = nil
	}
	return &Processor{
		includePaths: includePaths,
		matcher:      matcher,
		seen:         make(map[string]struct{}),
	}
}

// Process resolves, filters and expands every include path, returning the
// deduplicated file list in insertion order. Each examined path is reported
// through onPath. Individual invalid paths and unreadable subdirectories are
// skipped, never fatal.
func (p *Processor) Process(onPath EventFunc) ([]string, error) {
	var result []string

	for _, input := range p.includePaths {
		absolute, err := ToAbsolute(input)
		if err != nil {
			onPath(models.PathEvent{Path: input, Status: models.StatusInvalid, Reason: err.Error()})
			continue
		}

		if p.matcher != nil && p.matcher.Matches(absolute) {
			onPath(models.PathEvent{Path: absolute, Status: models.StatusExcluded})
			continue
		}

		info, err := os.Stat(absolute)
		if err != nil {
			onPath(models.PathEvent{Path: absolute, Status: models.StatusInvalid, Reason: err.Error()})
			continue
		}

		if info.IsDir() {
			result = p.expandDirectory(absolute, result, onPath)
			continue
		}

		if p.add(absolute) {
			onPath(models.PathEvent{Path: absolute, Status: models.StatusAdded})
			result = append(result, absolute)
		}
	}

	return result, nil
}

// expandDirectory enumerates every regular file beneath dir using an explicit
// stack, so deep trees cannot overflow the call stack. Directories are pushed
// and popped; only files reach the result. Each candidate file is filtered
// through the exclusion matcher.
func (p *Processor) expandDirectory(dir string, result []string, onPath EventFunc) []string {
	stack := []string{dir}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current)
		if err != nil {
			p.warnf("failed to read directory %s: %v", current, err)
			continue
		}

		// ReadDir returns entries sorted by name. Reverse-push directories
		// so the traversal visits them in name order.
		var files []string
		var dirs []string
		for _, entry := range entries {
			child := filepath.Join(current, entry.Name())
			if entry.IsDir() {
				dirs = append(dirs, child)
				continue
			}
			if entry.Type().IsRegular() {
				files = append(files, child)
			}
		}

		for _, file := range files {
			if p.matcher != nil && p.matcher.Matches(file) {
				onPath(models.PathEvent{Path: file, Status: models.StatusExcluded})
				continue
			}
			if p.add(file) {
				onPath(models.PathEvent{Path: file, Status: models.StatusAdded})
				result = append(result, file)
			}
		}

		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}

	return result
}

// add records a path in the dedup set, returning false if it was already seen.
func (p *Processor) add(path string) bool {
	if _, ok := p.seen[path]; ok {
		return false
	}
	p.seen[path] = struct{}{}
	return true
}

func (p *Processor) warnf(format string, args ...interface{}) {
	if p.Warnf != nil {
		p.Warnf(format, args...)
	}
}

// ToAbsolute resolves a path against the current working directory at the
// moment of the call. Already-absolute paths are returned unchanged.
func ToAbsolute(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

// Expand re-expands an already-filtered path list for verification: files are
// kept as-is, directories are walked, nonexistent paths are silently dropped.
// The result is deduplicated preserving first-seen order. No exclusion
// filtering is applied; the input is assumed to be post-exclusion.
func Expand(paths []string) []string {
	var expanded []string
	seen := make(map[string]struct{})

	appendUnique := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		expanded = append(expanded, path)
	}

	for _, input := range paths {
		info, err := os.Stat(input)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			appendUnique(input)
			continue
		}

		stack := []string{input}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := os.ReadDir(current)
			if err != nil {
				continue
			}

			var dirs []string
			for _, entry := range entries {
				child := filepath.Join(current, entry.Name())
				if entry.IsDir() {
					dirs = append(dirs, child)
					continue
				}
				if entry.Type().IsRegular() {
					appendUnique(child)
				}
			}
			for i := len(dirs) - 1; i >= 0; i-- {
				stack = append(stack, dirs[i])
			}
		}
	}

	return expanded
}

// ValidatePaths returns the subset of paths that exist on the filesystem,
// preserving order. Stat errors other than non-existence are treated as
// invalid as well.
func ValidatePaths(paths []string) []string {
	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			valid = append(valid, path)
		}
	}
	return valid
}

// SortedCopy returns a lexicographically sorted copy of paths. Useful for
// deterministic display of otherwise traversal-ordered lists.
func SortedCopy(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.Strings(out)
	return out
}
