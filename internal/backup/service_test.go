package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/archtree/internal/config"
	"github.com/harrison/archtree/internal/filelock"
	"github.com/harrison/archtree/internal/logger"
	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/verify"
)

// fakeArchiver implements Archiver and the verification interfaces. Created
// archives are tracked in memory; a marker file stands in for the archive on
// disk so existence checks behave like the real tool.
type fakeArchiver struct {
	available bool
	entries   []models.ArchiveEntry

	createCalls int
	updateCalls int

	// skip drops matching paths from Create, simulating files the tool
	// silently failed to archive
	skip map[string]bool
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{available: true, skip: map[string]bool{}}
}

func (f *fakeArchiver) record(paths []string) {
	for _, p := range paths {
		f.entries = append(f.entries, models.ArchiveEntry{Path: p})
	}
}

func (f *fakeArchiver) Create(ctx context.Context, paths []string, outputPath string) error {
	f.createCalls++
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !f.skip[p] {
			kept = append(kept, p)
		}
	}
	f.record(kept)
	return os.WriteFile(outputPath, []byte("archive"), 0644)
}

func (f *fakeArchiver) Update(ctx context.Context, paths []string, archivePath string) error {
	f.updateCalls++
	f.record(paths)
	return nil
}

func (f *fakeArchiver) ListEntries(ctx context.Context, archivePath string) ([]models.ArchiveEntry, error) {
	return f.entries, nil
}

func (f *fakeArchiver) IsAvailable(ctx context.Context) bool { return f.available }

func (f *fakeArchiver) Name() string { return "fake-archiver" }

func writeTree(t *testing.T, root string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		paths = append(paths, path)
	}
	return paths
}

func newService(archiver *fakeArchiver) *Service {
	return NewService(archiver, verify.NewService(archiver, archiver, nil), nil)
}

func TestRunCreatesAndVerifies(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/a.txt", "docs/b.txt", "docs/skip.tmp")
	archivePath := filepath.Join(root, "backup.zip")

	archiver := newFakeArchiver()
	svc := newService(archiver)

	summary, err := svc.Run(context.Background(), []string{
		filepath.Join(root, "docs"),
		"!*.tmp",
		filepath.Join(root, "missing"),
	}, Options{ArchivePath: archivePath, Verify: true})
	require.NoError(t, err)

	assert.Equal(t, 1, archiver.createCalls)
	assert.Zero(t, archiver.updateCalls)
	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, 1, summary.Excluded)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, []string{filepath.Join(root, "missing")}, summary.InvalidPaths)
	assert.Len(t, summary.Files, 2)

	require.NotNil(t, summary.Verification)
	assert.True(t, summary.Verification.IsComplete())
	assert.InDelta(t, 100.0, summary.Verification.SuccessRate(), 0.001)

	// Marker archive written by the fake
	_, err = os.Stat(archivePath)
	assert.NoError(t, err)
}

func TestRunUpdatesExistingArchive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/a.txt")
	archivePath := filepath.Join(root, "backup.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("existing"), 0644))

	archiver := newFakeArchiver()
	svc := newService(archiver)

	_, err := svc.Run(context.Background(), []string{filepath.Join(root, "docs")},
		Options{ArchivePath: archivePath})
	require.NoError(t, err)

	assert.Zero(t, archiver.createCalls)
	assert.Equal(t, 1, archiver.updateCalls)
}

func TestRunWithoutVerify(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/a.txt")

	archiver := newFakeArchiver()
	svc := newService(archiver)

	summary, err := svc.Run(context.Background(), []string{filepath.Join(root, "docs")},
		Options{ArchivePath: filepath.Join(root, "backup.zip")})
	require.NoError(t, err)

	assert.Nil(t, summary.Verification)
	assert.Nil(t, summary.Freshness)
}

func TestRunRetryArchivesMissingFiles(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, "docs/a.txt", "docs/b.txt")

	archiver := newFakeArchiver()
	archiver.skip[files[1]] = true
	svc := newService(archiver)

	summary, err := svc.Run(context.Background(), []string{filepath.Join(root, "docs")},
		Options{ArchivePath: filepath.Join(root, "backup.zip"), Verify: true, Retry: true})
	require.NoError(t, err)

	assert.Equal(t, 1, archiver.updateCalls, "retry should update the archive once")
	require.NotNil(t, summary.Verification)
	assert.True(t, summary.Verification.IsComplete())
}

func TestRunArchiverUnavailable(t *testing.T) {
	archiver := newFakeArchiver()
	archiver.available = false
	svc := newService(archiver)

	_, err := svc.Run(context.Background(), []string{"/anything"},
		Options{ArchivePath: filepath.Join(t.TempDir(), "backup.zip")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake-archiver")
}

func TestRunNoFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/skip.tmp")

	svc := newService(newFakeArchiver())
	_, err := svc.Run(context.Background(), []string{filepath.Join(root, "docs"), "!*.tmp"},
		Options{ArchivePath: filepath.Join(root, "backup.zip")})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNoInputPaths)
}

func TestRunNoArchivePath(t *testing.T) {
	svc := newService(newFakeArchiver())
	_, err := svc.Run(context.Background(), []string{"/anything"}, Options{})
	assert.ErrorIs(t, err, config.ErrEmptyOutputPath)
}

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	logger.NoOpLogger
	infos []string
}

func (r *recordingLogger) LogInfo(message string) { r.infos = append(r.infos, message) }

func TestRunReportsLockContention(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/a.txt")
	archivePath := filepath.Join(root, "backup.zip")

	holder := filelock.NewArchiveLock(archivePath)
	require.NoError(t, holder.Acquire(context.Background()))
	defer holder.Release()

	rec := &recordingLogger{}
	archiver := newFakeArchiver()
	svc := NewService(archiver, verify.NewService(archiver, archiver, nil), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := svc.Run(ctx, []string{filepath.Join(root, "docs")},
		Options{ArchivePath: archivePath})
	require.Error(t, err)

	waiting := false
	for _, line := range rec.infos {
		if strings.Contains(line, "waiting") {
			waiting = true
		}
	}
	assert.True(t, waiting, "contended lock should be reported before blocking")
	assert.Zero(t, archiver.createCalls)
}

func TestVerifyOnly(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, "docs/a.txt", "docs/b.txt")
	archivePath := filepath.Join(root, "backup.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("archive"), 0644))

	archiver := newFakeArchiver()
	archiver.record(files[:1]) // only a.txt archived
	svc := newService(archiver)

	summary, err := svc.VerifyOnly(context.Background(), []string{filepath.Join(root, "docs")},
		Options{ArchivePath: archivePath})
	require.NoError(t, err)

	assert.Zero(t, archiver.createCalls)
	assert.Zero(t, archiver.updateCalls)
	require.NotNil(t, summary.Verification)
	assert.False(t, summary.Verification.IsComplete())
	assert.Equal(t, []string{files[1]}, summary.Verification.MissingFiles)
}

func TestVerifyOnlyMissingArchive(t *testing.T) {
	svc := newService(newFakeArchiver())
	_, err := svc.VerifyOnly(context.Background(), []string{"/anything"},
		Options{ArchivePath: filepath.Join(t.TempDir(), "absent.zip")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveMemoized(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/a.txt")
	archivePath := filepath.Join(root, "backup.zip")

	archiver := newFakeArchiver()
	svc := newService(archiver)

	first, err := svc.Run(context.Background(), []string{filepath.Join(root, "docs")},
		Options{ArchivePath: archivePath})
	require.NoError(t, err)

	// New file appears after the first resolution
	writeTree(t, root, "docs/new.txt")

	second, err := svc.Run(context.Background(), []string{filepath.Join(root, "docs")},
		Options{ArchivePath: archivePath})
	require.NoError(t, err)

	assert.Equal(t, first.Files, second.Files, "resolved set should be computed once per service")
}
