// Package models defines the shared data types exchanged between the path
// processing, archiving and verification layers.
package models

import "time"

// ArchiveEntry represents one item (file or directory) as reported by the
// archiving tool's listing. Entries are produced only by the listing parser
// and never mutated afterwards.
type ArchiveEntry struct {
	// Path of the entry inside the archive
	Path string
	// IsDirectory reports whether the entry is a directory
	IsDirectory bool
	// Size in bytes (0 for directories and entries without a parseable size)
	Size uint64
	// Modified is the archived modification time, nil when the listing did
	// not carry a parseable timestamp
	Modified *time.Time
}

// FilePaths returns the paths of all non-directory entries, preserving
// listing order.
func FilePaths(entries []ArchiveEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDirectory {
			continue
		}
		paths = append(paths, entry.Path)
	}
	return paths
}
