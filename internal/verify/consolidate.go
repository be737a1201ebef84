package verify

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/archtree/internal/models"
)

// Consolidate collapses a missing-file list into directory-level summaries.
// When every expected file under a directory is missing, the directory is
// reported as a single "<dir>/*" line instead of its individual files.
// Partially missing directories keep their individual file lines. The output
// is sorted lexicographically for deterministic, diffable reports.
//
// A complete-missing directory whose ancestor is also complete-missing is
// folded into the ancestor's wildcard entry rather than reported separately.
func Consolidate(missingFiles []string, expectedFiles []string) []string {
	if len(missingFiles) == 0 {
		return nil
	}

	// Expected file count per parent directory
	expectedPerDir := make(map[string]map[string]struct{})
	for _, file := range expectedFiles {
		dir := filepath.Dir(file)
		if expectedPerDir[dir] == nil {
			expectedPerDir[dir] = make(map[string]struct{})
		}
		expectedPerDir[dir][file] = struct{}{}
	}

	// Missing files per parent directory
	missingPerDir := make(map[string][]string)
	for _, file := range missingFiles {
		dir := filepath.Dir(file)
		missingPerDir[dir] = append(missingPerDir[dir], file)
	}

	analysis := make(map[string]models.DirectoryMissingFiles)
	for dir, missing := range missingPerDir {
		expectedCount := len(expectedPerDir[dir])
		analysis[dir] = models.DirectoryMissingFiles{
			Directory:           dir,
			MissingFiles:        missing,
			TotalFiles:          expectedCount,
			IsCompleteDirectory: expectedCount > 0 && len(missing) == expectedCount,
		}
	}

	separator := string(filepath.Separator)

	// Deepest directories first, so descendants are settled before their
	// ancestors claim them.
	sortedDirs := make([]string, 0, len(analysis))
	for dir := range analysis {
		sortedDirs = append(sortedDirs, dir)
	}
	sort.Slice(sortedDirs, func(i, j int) bool {
		di := strings.Count(sortedDirs[i], separator)
		dj := strings.Count(sortedDirs[j], separator)
		if di != dj {
			return di > dj
		}
		return sortedDirs[i] < sortedDirs[j]
	})

	var consolidated []string
	processed := make(map[string]struct{})

	for _, dir := range sortedDirs {
		if _, done := processed[dir]; done {
			continue
		}
		info := analysis[dir]
		if !info.IsCompleteDirectory {
			continue
		}

		if hasCompleteAncestor(dir, analysis) {
			// The ancestor's wildcard entry will cover this directory
			processed[dir] = struct{}{}
			continue
		}

		consolidated = append(consolidated, dir+separator+"*")
		processed[dir] = struct{}{}

		// Suppress every descendant directory from independent output
		for other := range analysis {
			if other != dir && strings.HasPrefix(other, dir+separator) {
				processed[other] = struct{}{}
			}
		}
	}

	// Individual files from directories that are not completely missing
	for dir, info := range analysis {
		if _, done := processed[dir]; done || info.IsCompleteDirectory {
			continue
		}
		consolidated = append(consolidated, info.MissingFiles...)
	}

	sort.Strings(consolidated)
	return consolidated
}

// hasCompleteAncestor reports whether any proper ancestor directory of dir is
// itself complete-missing in the analysis.
func hasCompleteAncestor(dir string, analysis map[string]models.DirectoryMissingFiles) bool {
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		if info, ok := analysis[parent]; ok && info.IsCompleteDirectory {
			return true
		}
		dir = parent
	}
}
