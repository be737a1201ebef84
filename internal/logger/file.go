package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/archtree/internal/models"
)

// FileLogger logs backup and verification events to files in a logs
// directory. It creates timestamped per-run log files and maintains a
// latest.log symlink pointing to the most recent run. It is thread-safe
// and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a new FileLogger that writes to .archtree/logs/
// in the current working directory. Uses default log level "info".
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(filepath.Join(".archtree", "logs"), "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log
// directory and log level. This is useful for testing or custom deployments.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Timestamped filename: run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	runLog, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   runLog,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.updateLatestSymlink()
	return fl, nil
}

// updateLatestSymlink points latest.log at the current run file. Failures
// are ignored since symlinks are a convenience, not a requirement.
func (fl *FileLogger) updateLatestSymlink() {
	latest := filepath.Join(fl.logDir, "latest.log")
	os.Remove(latest)
	os.Symlink(filepath.Base(fl.runFile), latest)
}

// RunFile returns the path of the current run log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

func (fl *FileLogger) write(level, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return
	}

	fmt.Fprintf(fl.runLog, "[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
}

// LogTrace logs a trace-level message.
func (fl *FileLogger) LogTrace(message string) {
	fl.write("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.write("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.write("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.write("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.write("ERROR", message)
}

// LogPathEvent logs a path processing outcome at the level matching its status.
func (fl *FileLogger) LogPathEvent(event models.PathEvent) {
	message := fmt.Sprintf("%s: %s", event.Status, event.Path)
	if event.Reason != "" {
		message += fmt.Sprintf(" (%s)", event.Reason)
	}

	switch event.Status {
	case models.StatusExcluded:
		fl.LogDebug(message)
	case models.StatusInvalid:
		fl.LogWarn(message)
	default:
		fl.LogTrace(message)
	}
}

// LogVerificationSummary logs the verification summary at INFO level.
func (fl *FileLogger) LogVerificationSummary(result *models.VerificationResult) {
	if result == nil {
		return
	}
	fl.LogInfo(fmt.Sprintf("verification: %d/%d archived, %d missing, success rate %.1f%%",
		len(result.ArchivedFiles), result.TotalExpected, len(result.MissingFiles), result.SuccessRate()))
}

// LogRunComplete logs the end of a backup run with its duration at INFO level.
func (fl *FileLogger) LogRunComplete(archivePath string, duration time.Duration) {
	fl.LogInfo(fmt.Sprintf("run complete: %s (%s)", archivePath, formatDuration(duration)))
}
