// Package logger provides logging implementations for backup and
// verification runs.
//
// Loggers report path processing events, archiver invocations and
// verification summaries. Implementations are thread-safe and support
// level filtering; color output is enabled automatically when writing to
// a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/archtree/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the interface consumed by the backup and verification services.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogPathEvent(event models.PathEvent)
	LogVerificationSummary(result *models.VerificationResult)
}

// ConsoleLogger logs run progress to a writer with timestamps and thread
// safety. All output is prefixed with [HH:MM:SS] timestamps. It supports log
// level filtering to control message verbosity. Color output is enabled
// automatically when writing to a TTY on os.Stdout or os.Stderr.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok && (f == os.Stdout || f == os.Stderr) {
		// NoColor covers both non-TTY output and the NO_COLOR env var
		return isatty.IsTerminal(f.Fd()) && !color.NoColor
	}

	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// colorLevel applies the ANSI color conventionally used for a level tag.
func colorLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogPathEvent logs a single path processing outcome.
// Added paths log at TRACE, excluded paths at DEBUG, invalid paths at WARN.
// Format: "[HH:MM:SS] [<LEVEL>] <status>: <path> (<reason>)"
func (cl *ConsoleLogger) LogPathEvent(event models.PathEvent) {
	message := fmt.Sprintf("%s: %s", event.Status, event.Path)
	if event.Reason != "" {
		message += fmt.Sprintf(" (%s)", event.Reason)
	}

	switch event.Status {
	case models.StatusExcluded:
		cl.LogDebug(message)
	case models.StatusInvalid:
		cl.LogWarn(message)
	default:
		cl.LogTrace(message)
	}
}

// LogProgress logs real-time progress of path expansion or verification.
// Format: "[HH:MM:SS] Progress: [████░░░░░░] 50% (4/8 paths)"
func (cl *ConsoleLogger) LogProgress(done, total int) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(done)

	progressMsg := fmt.Sprintf("Progress: %s (%d/%d paths)", pb.Render(), done, total)
	if cl.colorOutput {
		if total > 0 && done >= total {
			progressMsg = color.New(color.FgGreen).Sprint(progressMsg)
		} else {
			progressMsg = color.New(color.FgCyan).Sprint(progressMsg)
		}
	}

	fmt.Fprintf(cl.writer, "[%s] %s\n", timestamp(), progressMsg)
}

// LogVerificationSummary logs the verification summary at INFO level.
// Format:
//
//	[HH:MM:SS] === Verification Summary ===
//	[HH:MM:SS] Expected files: <n>
//	[HH:MM:SS] Archived: <n>
//	[HH:MM:SS] Missing: <n>
//	[HH:MM:SS] Success rate: <r>%
func (cl *ConsoleLogger) LogVerificationSummary(result *models.VerificationResult) {
	if cl.writer == nil || result == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var output string

	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("=== Verification Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)
		output += fmt.Sprintf("[%s] Expected files: %d\n", ts, result.TotalExpected)

		archivedText := color.New(color.FgGreen).Sprintf("Archived: %d", len(result.ArchivedFiles))
		output += fmt.Sprintf("[%s] %s\n", ts, archivedText)

		if len(result.MissingFiles) > 0 {
			missingText := color.New(color.FgRed).Sprintf("Missing: %d", len(result.MissingFiles))
			output += fmt.Sprintf("[%s] %s\n", ts, missingText)
		} else {
			output += fmt.Sprintf("[%s] Missing: %d\n", ts, len(result.MissingFiles))
		}

		output += fmt.Sprintf("[%s] Success rate: %.1f%%\n", ts, result.SuccessRate())
	} else {
		output = fmt.Sprintf("[%s] === Verification Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Expected files: %d\n", ts, result.TotalExpected)
		output += fmt.Sprintf("[%s] Archived: %d\n", ts, len(result.ArchivedFiles))
		output += fmt.Sprintf("[%s] Missing: %d\n", ts, len(result.MissingFiles))
		output += fmt.Sprintf("[%s] Success rate: %.1f%%\n", ts, result.SuccessRate())
	}

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogTrace is a no-op implementation.
func (n *NoOpLogger) LogTrace(message string) {}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(message string) {}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(message string) {}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(message string) {}

// LogPathEvent is a no-op implementation.
func (n *NoOpLogger) LogPathEvent(event models.PathEvent) {}

// LogVerificationSummary is a no-op implementation.
func (n *NoOpLogger) LogVerificationSummary(result *models.VerificationResult) {}
