package models

import "time"

// VerificationResult holds the outcome of comparing the expected file set
// against an archive listing. MissingFiles and ArchivedFiles partition
// AllExpectedFiles: every expected file appears in exactly one of the two.
type VerificationResult struct {
	// MissingFiles are expected files not found in the archive
	MissingFiles []string
	// ArchivedFiles are expected files found in the archive
	ArchivedFiles []string
	// AllExpectedFiles is the full expanded expected file list
	AllExpectedFiles []string
	// TotalExpected is the number of files that were supposed to be archived
	TotalExpected int
	// TotalArchived is the number of file entries found in the archive
	TotalArchived int
}

// IsComplete reports whether verification passed with no missing files.
func (r *VerificationResult) IsComplete() bool {
	return len(r.MissingFiles) == 0
}

// SuccessRate returns the percentage of expected files found in the archive.
// An empty expectation counts as fully successful.
func (r *VerificationResult) SuccessRate() float64 {
	if r.TotalExpected == 0 {
		return 100.0
	}
	return float64(len(r.ArchivedFiles)) / float64(r.TotalExpected) * 100.0
}

// OutdatedFile describes a file whose filesystem copy is newer than the
// archived copy. Both timestamps are kept for diagnostic display.
type OutdatedFile struct {
	Path               string
	ArchiveModified    *time.Time
	FilesystemModified *time.Time
}

// FreshnessResult holds the outcome of comparing modification times between
// the archive and the filesystem for files present in both.
type FreshnessResult struct {
	// OutdatedFiles exist in both places but are newer on the filesystem
	OutdatedFiles []OutdatedFile
	// UpToDateFiles are within the freshness tolerance
	UpToDateFiles []string
	// UnverifiableFiles could not be compared (missing timestamp on either side)
	UnverifiableFiles []string
	// TotalChecked is the number of expected files examined
	TotalChecked int
}

// DirectoryMissingFiles aggregates the missing files of a single directory
// during consolidation.
type DirectoryMissingFiles struct {
	// Directory is the parent directory path
	Directory string
	// MissingFiles under this directory
	MissingFiles []string
	// TotalFiles expected under this directory
	TotalFiles int
	// IsCompleteDirectory holds when every expected file under the
	// directory is missing
	IsCompleteDirectory bool
}
