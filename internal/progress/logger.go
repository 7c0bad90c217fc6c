package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Failure records one file that could not be processed.
type Failure struct {
	File      string
	Error     string
	Timestamp time.Time
}

// ErrorLogger collects per-file failures and optionally appends them to a
// log file.
type ErrorLogger struct {
	mu       sync.Mutex
	logFile  string
	failures []Failure
	file     *os.File
}

// NewErrorLogger creates a new error logger. An empty logFile keeps
// failures in memory only.
func NewErrorLogger(logFile string) (*ErrorLogger, error) {
	logger := &ErrorLogger{logFile: logFile}

	if logFile != "" {
		dir := filepath.Dir(logFile)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		logger.file = file
	}

	return logger, nil
}

// Log records a failure for a file.
func (l *ErrorLogger) Log(filePath string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Failure{
		File:      filePath,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
	l.failures = append(l.failures, entry)

	if l.file != nil {
		line := fmt.Sprintf("%s | %s | %s\n",
			entry.Timestamp.Format(time.RFC3339),
			filepath.Base(filePath),
			entry.Error)
		l.file.WriteString(line)
	}
}

// Failures returns a copy of the recorded failures in logging order.
func (l *ErrorLogger) Failures() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Failure(nil), l.failures...)
}

// Summary returns a summary of logged errors.
func (l *ErrorLogger) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.failures) == 0 {
		return "No errors"
	}
	if l.logFile == "" {
		return fmt.Sprintf("%d errors", len(l.failures))
	}
	return fmt.Sprintf("%d errors logged to %s", len(l.failures), l.logFile)
}

// ErrorCount returns the number of logged errors.
func (l *ErrorLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

// Close closes the log file.
func (l *ErrorLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
