package pathproc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/archtree/internal/models"
	"github.com/harrison/archtree/internal/pattern"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	}
}

func collectEvents() (*[]models.PathEvent, EventFunc) {
	events := &[]models.PathEvent{}
	return events, func(event models.PathEvent) {
		*events = append(*events, event)
	}
}

func TestExtractExclusionPatterns(t *testing.T) {
	include, exclude := ExtractExclusionPatterns([]string{
		"file1.txt",
		"!*.tmp",
		"dir/file2.txt",
		"!cache/*",
		"",
	})

	assert.Equal(t, []string{"file1.txt", "dir/file2.txt"}, include)
	assert.Equal(t, []string{"*.tmp", "cache/*"}, exclude)
}

func TestExtractExclusionPatternsNoPatterns(t *testing.T) {
	include, exclude := ExtractExclusionPatterns([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, include)
	assert.Empty(t, exclude)
}

func TestToAbsolute(t *testing.T) {
	abs, err := ToAbsolute("/usr/bin")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin", abs)

	rel, err := ToAbsolute("some_file.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
	assert.True(t, filepath.Base(rel) == "some_file.txt")
}

func TestProcessExpandsDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "test1.txt", "test2.tmp", "subdir/test3.txt")

	matcher, err := pattern.Compile([]string{"*.tmp"})
	require.NoError(t, err)

	events, onPath := collectEvents()
	proc := New([]string{tmpDir}, matcher)
	result, err := proc.Process(onPath)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Contains(t, result, filepath.Join(tmpDir, "test1.txt"))
	assert.Contains(t, result, filepath.Join(tmpDir, "subdir", "test3.txt"))

	excluded := 0
	for _, e := range *events {
		if e.Status == models.StatusExcluded {
			excluded++
			assert.Equal(t, filepath.Join(tmpDir, "test2.tmp"), e.Path)
		}
	}
	assert.Equal(t, 1, excluded)
}

func TestProcessDeduplicates(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.txt", "sub/b.txt")

	matcher, err := pattern.Compile(nil)
	require.NoError(t, err)

	// Directory listed twice plus a file also reachable through the directory
	inputs := []string{tmpDir, filepath.Join(tmpDir, "a.txt"), tmpDir}
	_, onPath := collectEvents()
	proc := New(inputs, matcher)
	result, err := proc.Process(onPath)
	require.NoError(t, err)

	assert.Len(t, result, 2)
	counts := make(map[string]int)
	for _, p := range result {
		counts[p]++
	}
	for path, n := range counts {
		assert.Equal(t, 1, n, "path %s appeared %d times", path, n)
	}
}

func TestProcessExcludedDirectoryNotWalked(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "cache/data.json", "keep.txt")

	matcher, err := pattern.Compile([]string{"*cache*"})
	require.NoError(t, err)

	cacheDir := filepath.Join(tmpDir, "cache")
	events, onPath := collectEvents()
	proc := New([]string{cacheDir, filepath.Join(tmpDir, "keep.txt")}, matcher)
	result, err := proc.Process(onPath)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(tmpDir, "keep.txt")}, result)

	// The excluded directory is reported once, before any walk
	require.Len(t, *events, 2)
	assert.Equal(t, models.StatusExcluded, (*events)[0].Status)
	assert.Equal(t, cacheDir, (*events)[0].Path)
}

func TestProcessInvalidPath(t *testing.T) {
	tmpDir := t.TempDir()

	matcher, err := pattern.Compile(nil)
	require.NoError(t, err)

	missing := filepath.Join(tmpDir, "does-not-exist.txt")
	events, onPath := collectEvents()
	proc := New([]string{missing}, matcher)
	result, err := proc.Process(onPath)
	require.NoError(t, err)

	assert.Empty(t, result)
	require.Len(t, *events, 1)
	assert.Equal(t, models.StatusInvalid, (*events)[0].Status)
	assert.NotEmpty(t, (*events)[0].Reason)
}

func TestProcessEventOrderMatchesTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.txt", "b.txt")

	matcher, err := pattern.Compile(nil)
	require.NoError(t, err)

	events, onPath := collectEvents()
	proc := New([]string{tmpDir}, matcher)
	result, err := proc.Process(onPath)
	require.NoError(t, err)

	require.Len(t, result, 2)
	require.Len(t, *events, 2)
	assert.Equal(t, result[0], (*events)[0].Path)
	assert.Equal(t, result[1], (*events)[1].Path)
}

func TestExpand(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "x.txt", "nested/deep/y.txt")

	expanded := Expand([]string{tmpDir, filepath.Join(tmpDir, "x.txt"), "/no/such/path"})

	assert.Len(t, expanded, 2)
	assert.Contains(t, expanded, filepath.Join(tmpDir, "x.txt"))
	assert.Contains(t, expanded, filepath.Join(tmpDir, "nested", "deep", "y.txt"))
}

func TestExpandPlainFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "only.txt")
	file := filepath.Join(tmpDir, "only.txt")

	assert.Equal(t, []string{file}, Expand([]string{file}))
}

func TestValidatePaths(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "real.txt")

	valid := ValidatePaths([]string{
		filepath.Join(tmpDir, "real.txt"),
		filepath.Join(tmpDir, "fake.txt"),
	})

	assert.Equal(t, []string{filepath.Join(tmpDir, "real.txt")}, valid)
}

func TestSortedCopy(t *testing.T) {
	original := []string{"c", "a", "b"}
	sorted := SortedCopy(original)

	assert.Equal(t, []string{"a", "b", "c"}, sorted)
	assert.Equal(t, []string{"c", "a", "b"}, original)
}
