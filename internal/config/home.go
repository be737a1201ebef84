package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetArchtreeHome returns the archtree home directory.
// Priority order:
//  1. ARCHTREE_HOME environment variable (if set)
//  2. The nearest ancestor directory containing a .archtree-root marker
//  3. Current working directory (fallback)
//
// The directory is created if it doesn't exist.
func GetArchtreeHome() (string, error) {
	if home := os.Getenv("ARCHTREE_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create archtree home directory: %w", err)
		}
		return home, nil
	}

	if root, err := findProjectRoot(); err == nil {
		return ensureHome(root)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return ensureHome(cwd)
}

func ensureHome(base string) (string, error) {
	home := filepath.Join(base, ".archtree")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create archtree home directory: %w", err)
	}
	return home, nil
}

// findProjectRoot walks up from the working directory looking for a
// .archtree-root marker file.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		markerPath := filepath.Join(current, ".archtree-root")
		if _, err := os.Stat(markerPath); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return "", fmt.Errorf("project root not found (no .archtree-root marker)")
}

// GetHistoryDBPath returns the absolute path to the run history database.
// Always returns: $ARCHTREE_HOME/history/runs.db
func GetHistoryDBPath() (string, error) {
	historyDir, err := GetHistoryDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(historyDir, "runs.db"), nil
}

// GetHistoryDir returns the history directory path, creating it if needed.
func GetHistoryDir() (string, error) {
	home, err := GetArchtreeHome()
	if err != nil {
		return "", err
	}

	historyDir := filepath.Join(home, "history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}
	return historyDir, nil
}
