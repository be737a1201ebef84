package logger

import "github.com/harrison/archtree/internal/models"

// MultiLogger fans every log call out to a set of loggers, typically a
// ConsoleLogger for the terminal and a FileLogger for the run log. Each
// target applies its own level filtering.
type MultiLogger struct {
	targets []Logger
}

// NewMultiLogger creates a MultiLogger over the given targets. Nil targets
// are skipped.
func NewMultiLogger(targets ...Logger) *MultiLogger {
	ml := &MultiLogger{}
	for _, t := range targets {
		if t != nil {
			ml.targets = append(ml.targets, t)
		}
	}
	return ml
}

// LogTrace logs a trace-level message to all targets.
func (ml *MultiLogger) LogTrace(message string) {
	for _, t := range ml.targets {
		t.LogTrace(message)
	}
}

// LogDebug logs a debug-level message to all targets.
func (ml *MultiLogger) LogDebug(message string) {
	for _, t := range ml.targets {
		t.LogDebug(message)
	}
}

// LogInfo logs an info-level message to all targets.
func (ml *MultiLogger) LogInfo(message string) {
	for _, t := range ml.targets {
		t.LogInfo(message)
	}
}

// LogWarn logs a warning-level message to all targets.
func (ml *MultiLogger) LogWarn(message string) {
	for _, t := range ml.targets {
		t.LogWarn(message)
	}
}

// LogError logs an error-level message to all targets.
func (ml *MultiLogger) LogError(message string) {
	for _, t := range ml.targets {
		t.LogError(message)
	}
}

// LogPathEvent logs a path processing outcome to all targets.
func (ml *MultiLogger) LogPathEvent(event models.PathEvent) {
	for _, t := range ml.targets {
		t.LogPathEvent(event)
	}
}

// LogVerificationSummary logs the verification summary to all targets.
func (ml *MultiLogger) LogVerificationSummary(result *models.VerificationResult) {
	for _, t := range ml.targets {
		t.LogVerificationSummary(result)
	}
}
