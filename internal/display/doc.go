// Package display provides terminal UI utilities for progress, warnings and
// verification reports.
//
// This package centralizes terminal output formatting, ANSI color codes and
// user-facing display logic for the archtree CLI.
//
// # Progress Indicators
//
// Use ProgressIndicator for path processing:
//
//	progress := display.NewProgressIndicator(os.Stdout, len(paths))
//	progress.Start()
//	for _, path := range paths {
//	    progress.Step(path)
//	    // ... process path ...
//	}
//	progress.Complete()
//
// # Missing File Reports
//
// Missing files can be rendered individually or consolidated into directory
// wildcards:
//
//	var strategy display.MissingFilesStrategy = display.NewConsolidatedDisplay()
//	strategy.Render(os.Stdout, result)
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Invalid Paths Skipped",
//	    Files:      invalidPaths,
//	    Suggestion: "Remove stale entries from the plan file",
//	}
//	warning.Display(os.Stderr)
//
// All functions accept io.Writer interfaces for testability.
package display
