package sevenzip

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/harrison/archtree/internal/models"
)

// modifiedLayout is the fixed timestamp format used by 7-Zip listings.
const modifiedLayout = "2006-01-02 15:04:05"

// ParseListing parses the technical listing output of `7z l -slt` into typed
// archive entries.
//
// The listing describes each archived item as a contiguous block of
// "key = value" lines terminated by a blank line:
//
//	Path = docs/report.txt
//	Size = 1024
//	Attributes = A
//	Modified = 2024-03-01 10:15:30
//
// Malformed blocks are tolerated: an unparseable size defaults to zero and an
// unparseable timestamp leaves Modified nil. The entry describing the archive
// itself (Path equal to archivePath) and entries with empty paths are skipped.
// A listing without a trailing blank line still yields its last entry.
func ParseListing(listing string, archivePath string) []models.ArchiveEntry {
	var entries []models.ArchiveEntry
	var current *models.ArchiveEntry

	flush := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for _, rawLine := range strings.Split(listing, "\n") {
		line := strings.TrimSpace(rawLine)

		switch {
		case strings.HasPrefix(line, "Path = "):
			flush()
			path := strings.TrimPrefix(line, "Path = ")
			if path == "" || path == archivePath {
				continue
			}
			current = &models.ArchiveEntry{Path: path}

		case strings.HasPrefix(line, "Attributes = ") && current != nil:
			attributes := strings.TrimPrefix(line, "Attributes = ")
			current.IsDirectory = strings.ContainsRune(attributes, 'D')

		case strings.HasPrefix(line, "Size = ") && current != nil:
			if size, err := strconv.ParseUint(strings.TrimPrefix(line, "Size = "), 10, 64); err == nil {
				current.Size = size
			}

		case strings.HasPrefix(line, "Modified = ") && current != nil:
			current.Modified = ParseModified(strings.TrimPrefix(line, "Modified = "))

		case line == "":
			flush()
		}
	}

	flush()
	return entries
}

// ParseModified parses a 7-Zip listing timestamp. The listing reports local
// time, so the value is interpreted in the local timezone. Returns nil when
// the value does not match the listing format.
func ParseModified(value string) *time.Time {
	parsed, err := time.ParseInLocation(modifiedLayout, value, time.Local)
	if err != nil {
		return nil
	}
	return &parsed
}

// DecodeOutput converts raw listing bytes to a string, attempting strict
// UTF-8 first and falling back to a lossy conversion that replaces invalid
// sequences with the Unicode replacement character. Verification of
// non-ASCII filenames depends on the listing surviving this decode.
func DecodeOutput(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), false
}
