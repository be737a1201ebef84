package verify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/archtree/internal/models"
)

// testBase returns a stable second-aligned timestamp safely in the past.
func testBase() time.Time {
	return time.Now().Add(-time.Hour).Truncate(time.Second)
}

// writeFileAt creates a file and pins its modification time.
func writeFileAt(t *testing.T, dir, name string, modified time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	require.NoError(t, os.Chtimes(path, modified, modified))
	return path
}

func archivedAt(path string, modified time.Time) models.ArchiveEntry {
	return models.ArchiveEntry{Path: path, Size: 7, Modified: &modified}
}

func TestCheckFreshnessUpToDate(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	path := writeFileAt(t, tmpDir, "fresh.txt", base)

	result := CheckFreshness([]string{path}, []models.ArchiveEntry{archivedAt(path, base)})

	assert.Equal(t, []string{path}, result.UpToDateFiles)
	assert.Empty(t, result.OutdatedFiles)
	assert.Empty(t, result.UnverifiableFiles)
	assert.Equal(t, 1, result.TotalChecked)
}

func TestCheckFreshnessToleranceBoundary(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	// Exactly at the tolerance: still up to date
	atTolerance := writeFileAt(t, tmpDir, "at.txt", base.Add(FreshnessTolerance))
	// One second past the tolerance: outdated
	pastTolerance := writeFileAt(t, tmpDir, "past.txt", base.Add(FreshnessTolerance+time.Second))

	result := CheckFreshness(
		[]string{atTolerance, pastTolerance},
		[]models.ArchiveEntry{
			archivedAt(atTolerance, base),
			archivedAt(pastTolerance, base),
		},
	)

	assert.Equal(t, []string{atTolerance}, result.UpToDateFiles)
	require.Len(t, result.OutdatedFiles, 1)
	assert.Equal(t, pastTolerance, result.OutdatedFiles[0].Path)
	require.NotNil(t, result.OutdatedFiles[0].ArchiveModified)
	require.NotNil(t, result.OutdatedFiles[0].FilesystemModified)
	assert.True(t, result.OutdatedFiles[0].FilesystemModified.After(*result.OutdatedFiles[0].ArchiveModified))
}

func TestCheckFreshnessArchiveNewerIsUpToDate(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	path := writeFileAt(t, tmpDir, "old.txt", base.Add(-time.Minute))

	result := CheckFreshness([]string{path}, []models.ArchiveEntry{archivedAt(path, base)})

	assert.Equal(t, []string{path}, result.UpToDateFiles)
}

func TestCheckFreshnessUnverifiable(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Now().Truncate(time.Second)

	noTimestamp := writeFileAt(t, tmpDir, "no-ts.txt", base)
	vanished := filepath.Join(tmpDir, "vanished.txt")

	result := CheckFreshness(
		[]string{noTimestamp, vanished},
		[]models.ArchiveEntry{
			{Path: noTimestamp, Size: 1}, // no Modified in listing
			archivedAt(vanished, base),   // gone from the filesystem
		},
	)

	assert.ElementsMatch(t, []string{noTimestamp, vanished}, result.UnverifiableFiles)
	assert.Empty(t, result.OutdatedFiles)
	assert.Empty(t, result.UpToDateFiles)
}

func TestCheckFreshnessSkipsFilesNotInArchive(t *testing.T) {
	result := CheckFreshness([]string{"/not/in/archive.txt"}, nil)

	assert.Equal(t, 1, result.TotalChecked)
	assert.Empty(t, result.OutdatedFiles)
	assert.Empty(t, result.UpToDateFiles)
	assert.Empty(t, result.UnverifiableFiles)
}
