package verify

import (
	"os"
	"time"

	"github.com/harrison/archtree/internal/models"
)

// FreshnessTolerance absorbs timestamp-precision differences between the
// archiver and the filesystem: a filesystem copy at most this much newer than
// the archived copy still counts as up to date.
const FreshnessTolerance = 2 * time.Second

// CheckFreshness compares modification times between the archive and the
// filesystem for every expected file present in the archive.
//
// A file is outdated when its filesystem time exceeds the archived time by
// more than FreshnessTolerance, up to date when within the tolerance, and
// unverifiable when either timestamp is unavailable. Files missing from the
// archive are not this check's concern; the missing-file diff reports those.
func CheckFreshness(expected []string, archived []models.ArchiveEntry) *models.FreshnessResult {
	archiveMap := make(map[string]models.ArchiveEntry)
	for _, entry := range archived {
		if entry.IsDirectory {
			continue
		}
		archiveMap[entry.Path] = entry
	}

	result := &models.FreshnessResult{TotalChecked: len(expected)}

	for _, path := range expected {
		entry, inArchive := archiveMap[path]
		if !inArchive {
			continue
		}

		if entry.Modified == nil {
			result.UnverifiableFiles = append(result.UnverifiableFiles, path)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			result.UnverifiableFiles = append(result.UnverifiableFiles, path)
			continue
		}

		fsModified := info.ModTime()
		if fsModified.Sub(*entry.Modified) > FreshnessTolerance {
			archiveModified := *entry.Modified
			result.OutdatedFiles = append(result.OutdatedFiles, models.OutdatedFile{
				Path:               path,
				ArchiveModified:    &archiveModified,
				FilesystemModified: &fsModified,
			})
		} else {
			result.UpToDateFiles = append(result.UpToDateFiles, path)
		}
	}

	return result
}
