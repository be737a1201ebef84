// Package verify compares an expected backup file set against the contents
// of an archive listing and reports missing, stale and consolidated results.
package verify

import (
	"path/filepath"
	"strings"

	"github.com/harrison/archtree/internal/models"
)

// Compare diffs the expected file list against archive entries.
//
// Directory entries are discarded before comparison. Paths are normalized
// (lower-cased, backslashes to forward slashes) on both sides. An expected
// file counts as archived when its normalized full path matches an archived
// path, or, as a fallback, when its bare filename matches the filename of any
// archived entry. Some archiving backends rewrite or flatten paths.
//
// TotalArchived reports the number of file entries in the archive, not the
// match count.
func Compare(expected []string, archived []models.ArchiveEntry) *models.VerificationResult {
	filePaths := models.FilePaths(archived)

	archivedPaths := make(map[string]struct{}, len(filePaths))
	archivedNames := make(map[string]struct{}, len(filePaths))
	for _, path := range filePaths {
		archivedPaths[normalizePath(path)] = struct{}{}
		archivedNames[lowerFilename(path)] = struct{}{}
	}

	result := &models.VerificationResult{
		AllExpectedFiles: expected,
		TotalExpected:    len(expected),
		TotalArchived:    len(filePaths),
	}

	for _, path := range expected {
		_, pathMatch := archivedPaths[normalizePath(path)]
		_, nameMatch := archivedNames[lowerFilename(path)]
		if pathMatch || nameMatch {
			result.ArchivedFiles = append(result.ArchivedFiles, path)
		} else {
			result.MissingFiles = append(result.MissingFiles, path)
		}
	}

	return result
}

// normalizePath lower-cases a path and converts backslash separators to
// forward slashes for cross-platform comparison.
func normalizePath(path string) string {
	return strings.ReplaceAll(strings.ToLower(path), `\`, "/")
}

// lowerFilename extracts the case-folded bare filename of a path, accepting
// either separator style.
func lowerFilename(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	return strings.ToLower(filepath.Base(normalized))
}
