package verify

import (
	"context"
	"fmt"

	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/pathproc"
)

// Lister lists the contents of an existing archive.
type Lister interface {
	ListEntries(ctx context.Context, archivePath string) ([]models.ArchiveEntry, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

// Updater adds or refreshes files in an existing archive. Used by the retry
// and freshness-update flows.
type Updater interface {
	Update(ctx context.Context, paths []string, archivePath string) error
}

// Mode selects how the service reacts to missing files.
type Mode int

const (
	// VerifyOnly reports missing files without touching the archive
	VerifyOnly Mode = iota
	// VerifyWithRetry re-invokes the archiver on validated missing files
	// and verifies again
	VerifyWithRetry
)

// String returns the string representation of the Mode
func (m Mode) String() string {
	switch m {
	case VerifyOnly:
		return "verify-only"
	case VerifyWithRetry:
		return "verify-with-retry"
	default:
		return "unknown"
	}
}

// EventKind identifies a verification progress event.
type EventKind int

const (
	// EventStarting marks the start of a verification pass
	EventStarting EventKind = iota
	// EventListingComplete fires after the archive listing is parsed
	EventListingComplete
	// EventComparisonComplete fires after the diff
	EventComparisonComplete
	// EventFreshnessStarting marks the start of a freshness check
	EventFreshnessStarting
	// EventFreshnessComplete fires after the freshness check
	EventFreshnessComplete
	// EventRetryStarting fires before missing files are re-archived
	EventRetryStarting
	// EventRetryComplete fires after missing files were re-archived
	EventRetryComplete
	// EventRetryVerified fires after the post-retry verification
	EventRetryVerified
	// EventUpdatingOutdated fires before outdated files are refreshed
	EventUpdatingOutdated
	// EventUpdateComplete fires after outdated files were refreshed
	EventUpdateComplete
	// EventComplete marks a fully successful verification
	EventComplete
)

// Event is one progress report emitted during verification. Only the fields
// relevant to the Kind are populated.
type Event struct {
	Kind EventKind
	Mode Mode

	EntriesFound  int
	Missing       int
	Found         int
	TotalExpected int

	Outdated     int
	UpToDate     int
	Unverifiable int
	TotalChecked int

	FilesToProcess int
	FilesProcessed int
}

// Callback receives verification progress events. May be nil.
type Callback func(Event)

// Service orchestrates verification, retry and freshness passes against an
// archive. Create one per run.
type Service struct {
	lister   Lister
	updater  Updater
	callback Callback
}

// NewService creates a verification service. callback may be nil to disable
// progress events.
func NewService(lister Lister, updater Updater, callback Callback) *Service {
	return &Service{lister: lister, updater: updater, callback: callback}
}

func (s *Service) emit(event Event) {
	if s.callback != nil {
		s.callback(event)
	}
}

// Verify expands the expected paths, lists the archive and diffs the two
// sets. In VerifyWithRetry mode, missing files that still exist on disk are
// re-archived and the archive is verified once more.
func (s *Service) Verify(ctx context.Context, archivePath string, expectedPaths []string, mode Mode) (*models.VerificationResult, error) {
	if !s.lister.IsAvailable(ctx) {
		return nil, fmt.Errorf("%s is not available on this system", s.lister.Name())
	}

	s.emit(Event{Kind: EventStarting, Mode: mode})

	result, err := s.verifyOnce(ctx, archivePath, expectedPaths)
	if err != nil {
		return nil, err
	}

	if result.IsComplete() {
		s.emit(Event{Kind: EventComplete, Mode: mode})
		return result, nil
	}

	if mode == VerifyWithRetry {
		return s.retryMissing(ctx, archivePath, expectedPaths, result)
	}

	return result, nil
}

// verifyOnce performs a single list-and-diff pass.
func (s *Service) verifyOnce(ctx context.Context, archivePath string, expectedPaths []string) (*models.VerificationResult, error) {
	expanded := pathproc.Expand(expectedPaths)

	entries, err := s.lister.ListEntries(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	s.emit(Event{Kind: EventListingComplete, EntriesFound: len(entries)})

	result := Compare(expanded, entries)
	s.emit(Event{
		Kind:          EventComparisonComplete,
		Missing:       len(result.MissingFiles),
		Found:         len(result.ArchivedFiles),
		TotalExpected: result.TotalExpected,
	})
	return result, nil
}

// retryMissing validates the missing files, re-archives the survivors and
// verifies again.
func (s *Service) retryMissing(ctx context.Context, archivePath string, expectedPaths []string, previous *models.VerificationResult) (*models.VerificationResult, error) {
	validMissing := pathproc.ValidatePaths(previous.MissingFiles)
	if len(validMissing) == 0 {
		return previous, nil
	}

	s.emit(Event{Kind: EventRetryStarting, FilesToProcess: len(validMissing)})

	if err := s.updater.Update(ctx, validMissing, archivePath); err != nil {
		return nil, err
	}
	s.emit(Event{Kind: EventRetryComplete, FilesProcessed: len(validMissing)})

	result, err := s.verifyOnce(ctx, archivePath, expectedPaths)
	if err != nil {
		return nil, err
	}

	s.emit(Event{
		Kind:          EventRetryVerified,
		Missing:       len(result.MissingFiles),
		Found:         len(result.ArchivedFiles),
		TotalExpected: result.TotalExpected,
	})
	if result.IsComplete() {
		s.emit(Event{Kind: EventComplete, Mode: VerifyWithRetry})
	}
	return result, nil
}

// Freshness expands the expected paths, lists the archive and classifies
// every archived file as up to date, outdated or unverifiable. When
// updateOutdated is set, outdated files are re-archived afterwards.
func (s *Service) Freshness(ctx context.Context, archivePath string, expectedPaths []string, updateOutdated bool) (*models.FreshnessResult, error) {
	if !s.lister.IsAvailable(ctx) {
		return nil, fmt.Errorf("%s is not available on this system", s.lister.Name())
	}

	s.emit(Event{Kind: EventFreshnessStarting})

	expanded := pathproc.Expand(expectedPaths)
	entries, err := s.lister.ListEntries(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	result := CheckFreshness(expanded, entries)
	s.emit(Event{
		Kind:         EventFreshnessComplete,
		Outdated:     len(result.OutdatedFiles),
		UpToDate:     len(result.UpToDateFiles),
		Unverifiable: len(result.UnverifiableFiles),
		TotalChecked: result.TotalChecked,
	})

	if updateOutdated && len(result.OutdatedFiles) > 0 {
		paths := make([]string, len(result.OutdatedFiles))
		for i, outdated := range result.OutdatedFiles {
			paths[i] = outdated.Path
		}

		s.emit(Event{Kind: EventUpdatingOutdated, FilesToProcess: len(paths)})
		if err := s.updater.Update(ctx, paths, archivePath); err != nil {
			return nil, err
		}
		s.emit(Event{Kind: EventUpdateComplete, FilesProcessed: len(paths)})
	}

	return result, nil
}
