package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationResultIsComplete(t *testing.T) {
	complete := VerificationResult{
		ArchivedFiles:    []string{"a.txt", "b.txt"},
		AllExpectedFiles: []string{"a.txt", "b.txt"},
		TotalExpected:    2,
		TotalArchived:    2,
	}
	assert.True(t, complete.IsComplete())

	incomplete := VerificationResult{
		MissingFiles:     []string{"c.txt"},
		ArchivedFiles:    []string{"a.txt", "b.txt"},
		AllExpectedFiles: []string{"a.txt", "b.txt", "c.txt"},
		TotalExpected:    3,
		TotalArchived:    2,
	}
	assert.False(t, incomplete.IsComplete())
}

func TestVerificationResultSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		result   VerificationResult
		expected float64
	}{
		{
			name:     "empty expectation counts as success",
			result:   VerificationResult{},
			expected: 100.0,
		},
		{
			name: "all found",
			result: VerificationResult{
				ArchivedFiles: []string{"a", "b"},
				TotalExpected: 2,
			},
			expected: 100.0,
		},
		{
			name: "half found",
			result: VerificationResult{
				MissingFiles:  []string{"b"},
				ArchivedFiles: []string{"a"},
				TotalExpected: 2,
			},
			expected: 50.0,
		},
		{
			name: "two thirds found",
			result: VerificationResult{
				MissingFiles:  []string{"c"},
				ArchivedFiles: []string{"a", "b"},
				TotalExpected: 3,
			},
			expected: 66.66666666666667,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.result.SuccessRate(), 0.0001)
		})
	}
}

func TestFilePaths(t *testing.T) {
	now := time.Now()
	entries := []ArchiveEntry{
		{Path: "docs", IsDirectory: true},
		{Path: "docs/a.txt", Size: 10, Modified: &now},
		{Path: "docs/b.txt", Size: 20},
	}

	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt"}, FilePaths(entries))
}

func TestFilePathsEmpty(t *testing.T) {
	assert.Empty(t, FilePaths(nil))
	assert.Empty(t, FilePaths([]ArchiveEntry{{Path: "d", IsDirectory: true}}))
}

func TestPathStatusString(t *testing.T) {
	assert.Equal(t, "added", StatusAdded.String())
	assert.Equal(t, "excluded", StatusExcluded.String())
	assert.Equal(t, "invalid", StatusInvalid.String())
	assert.Equal(t, "unknown", PathStatus(99).String())
}
