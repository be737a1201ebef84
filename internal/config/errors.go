package config

import "errors"

// Configuration errors shared across commands. Both are fatal: a run cannot
// proceed without inputs or a target archive.
var (
	// ErrNoInputPaths means the plan resolved to an empty backup set
	ErrNoInputPaths = errors.New("no input paths to archive")

	// ErrEmptyOutputPath means no archive path was configured via flag,
	// plan, config file or environment
	ErrEmptyOutputPath = errors.New("no output archive path configured")
)
