// Package backup orchestrates a full backup run: resolving input paths,
// invoking the archiver under an archive lock, and optionally verifying the
// result.
package backup

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/harrison/archtree/internal/config"
	"github.com/harrison/archtree/internal/filelock"
	"github.com/harrison/archtree/internal/logger"
	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/pathproc"
	"github.com/harrison/archtree/internal/pattern"
	"github.com/harrison/archtree/internal/verify"
)

// Archiver creates and updates archives.
type Archiver interface {
	Create(ctx context.Context, paths []string, outputPath string) error
	Update(ctx context.Context, paths []string, archivePath string) error
	IsAvailable(ctx context.Context) bool
	Name() string
}

// Options controls a single backup run.
type Options struct {
	// ArchivePath is the target archive
	ArchivePath string
	// PlanFile is the plan source, recorded in history (may be empty)
	PlanFile string
	// Verify runs archive verification after archiving
	Verify bool
	// Retry re-archives missing files found by verification
	Retry bool
	// CheckFreshness compares archive timestamps against the filesystem
	CheckFreshness bool
	// UpdateOutdated re-archives files the freshness check found outdated
	UpdateOutdated bool
}

// Summary is the outcome of a backup run.
type Summary struct {
	ArchivePath string
	PlanFile    string
	StartedAt   time.Time
	Duration    time.Duration

	// Path processing counts
	Added    int
	Excluded int
	Invalid  int

	// InvalidPaths lists the input paths that could not be resolved
	InvalidPaths []string

	// Files is the resolved backup set, in traversal order
	Files []string

	Verification *models.VerificationResult
	Freshness    *models.FreshnessResult
}

// Service runs backups. Create one per run: the resolved backup set is
// memoized so archiving and verification always operate on the same file
// list, even if path contents change between the two passes.
type Service struct {
	archiver Archiver
	verifier *verify.Service
	log      logger.Logger

	resolveOnce sync.Once
	resolved    []string
	resolveErr  error
}

// NewService creates a backup service. verifier may be nil when Options
// never enables verification; log may be nil to disable logging.
func NewService(archiver Archiver, verifier *verify.Service, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		archiver: archiver,
		verifier: verifier,
		log:      log,
	}
}

// Run executes a backup of the given plan lines into opts.ArchivePath.
// The archive lock is held across archiving, retry and freshness updates so
// concurrent runs against the same archive serialize.
func (s *Service) Run(ctx context.Context, lines []string, opts Options) (*Summary, error) {
	if opts.ArchivePath == "" {
		return nil, config.ErrEmptyOutputPath
	}
	if !s.archiver.IsAvailable(ctx) {
		return nil, fmt.Errorf("%s is not available on this system", s.archiver.Name())
	}

	summary := &Summary{
		ArchivePath: opts.ArchivePath,
		PlanFile:    opts.PlanFile,
		StartedAt:   time.Now(),
	}

	files, err := s.resolve(lines, summary)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing left after exclusion and validation", config.ErrNoInputPaths)
	}
	summary.Files = files
	s.log.LogInfo(fmt.Sprintf("resolved %d files (%d excluded, %d invalid)",
		summary.Added, summary.Excluded, summary.Invalid))

	lock := filelock.NewArchiveLock(opts.ArchivePath)
	onWait := func() {
		s.log.LogInfo(fmt.Sprintf("another run holds the lock on %s, waiting", opts.ArchivePath))
	}
	err = lock.WithLockWait(ctx, onWait, func() error {
		if err := s.archive(ctx, files, opts.ArchivePath); err != nil {
			return err
		}

		if opts.Verify {
			mode := verify.VerifyOnly
			if opts.Retry {
				mode = verify.VerifyWithRetry
			}
			result, err := s.verifier.Verify(ctx, opts.ArchivePath, files, mode)
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			summary.Verification = result
			s.log.LogVerificationSummary(result)
		}

		if opts.CheckFreshness {
			result, err := s.verifier.Freshness(ctx, opts.ArchivePath, files, opts.UpdateOutdated)
			if err != nil {
				return fmt.Errorf("freshness check failed: %w", err)
			}
			summary.Freshness = result
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.Duration = time.Since(summary.StartedAt)
	s.log.LogInfo(fmt.Sprintf("backup of %s finished in %s", opts.ArchivePath, summary.Duration.Round(time.Second)))
	return summary, nil
}

// VerifyOnly verifies an existing archive against the plan lines without
// archiving anything first.
func (s *Service) VerifyOnly(ctx context.Context, lines []string, opts Options) (*Summary, error) {
	if opts.ArchivePath == "" {
		return nil, config.ErrEmptyOutputPath
	}
	if _, err := os.Stat(opts.ArchivePath); err != nil {
		return nil, fmt.Errorf("archive %s not found: %w", opts.ArchivePath, err)
	}

	summary := &Summary{
		ArchivePath: opts.ArchivePath,
		PlanFile:    opts.PlanFile,
		StartedAt:   time.Now(),
	}

	files, err := s.resolve(lines, summary)
	if err != nil {
		return nil, err
	}
	summary.Files = files

	mode := verify.VerifyOnly
	if opts.Retry {
		mode = verify.VerifyWithRetry
	}

	run := func() error {
		result, err := s.verifier.Verify(ctx, opts.ArchivePath, files, mode)
		if err != nil {
			return err
		}
		summary.Verification = result
		s.log.LogVerificationSummary(result)

		if opts.CheckFreshness {
			freshness, err := s.verifier.Freshness(ctx, opts.ArchivePath, files, opts.UpdateOutdated)
			if err != nil {
				return fmt.Errorf("freshness check failed: %w", err)
			}
			summary.Freshness = freshness
		}
		return nil
	}

	// Only lock when the run can modify the archive
	if opts.Retry || opts.UpdateOutdated {
		onWait := func() {
			s.log.LogInfo(fmt.Sprintf("another run holds the lock on %s, waiting", opts.ArchivePath))
		}
		err = filelock.NewArchiveLock(opts.ArchivePath).WithLockWait(ctx, onWait, run)
	} else {
		err = run()
	}
	if err != nil {
		return nil, err
	}

	summary.Duration = time.Since(summary.StartedAt)
	return summary, nil
}

// resolve turns plan lines into the memoized backup set, recording per-path
// outcomes on the summary.
func (s *Service) resolve(lines []string, summary *Summary) ([]string, error) {
	s.resolveOnce.Do(func() {
		includePaths, patterns := pathproc.ExtractExclusionPatterns(lines)

		matcher, err := pattern.Compile(patterns)
		if err != nil {
			s.resolveErr = fmt.Errorf("invalid exclusion pattern: %w", err)
			return
		}

		processor := pathproc.New(includePaths, matcher)
		processor.Warnf = func(format string, args ...interface{}) {
			s.log.LogWarn(fmt.Sprintf(format, args...))
		}

		s.resolved, s.resolveErr = processor.Process(func(event models.PathEvent) {
			s.log.LogPathEvent(event)
			switch event.Status {
			case models.StatusAdded:
				summary.Added++
			case models.StatusExcluded:
				summary.Excluded++
			case models.StatusInvalid:
				summary.Invalid++
				summary.InvalidPaths = append(summary.InvalidPaths, event.Path)
			}
		})
	})
	return s.resolved, s.resolveErr
}

// archive creates the archive, or updates it in place when it already exists.
func (s *Service) archive(ctx context.Context, files []string, archivePath string) error {
	if _, err := os.Stat(archivePath); err == nil {
		s.log.LogInfo(fmt.Sprintf("updating existing archive %s with %d files", archivePath, len(files)))
		if err := s.archiver.Update(ctx, files, archivePath); err != nil {
			return fmt.Errorf("failed to update archive: %w", err)
		}
		return nil
	}

	s.log.LogInfo(fmt.Sprintf("creating archive %s with %d files", archivePath, len(files)))
	if err := s.archiver.Create(ctx, files, archivePath); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}
