package openlearnhub

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CompletionLogger records the prompt sent to the completion provider
// and the raw text that came back, one file per quiz request. The raw
// dump is what you want when extraction starts failing: the model's
// actual output, wrapper text and all.
type CompletionLogger struct {
	file *os.File
	mu   sync.Mutex
}

// NewCompletionLogger creates a transcript log for one quiz request.
func NewCompletionLogger(dir, videoTitle string) (*CompletionLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("quiz-%d.log", time.Now().UnixNano()))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &CompletionLogger{file: file}
	logger.logf("=== Quiz Completion Log ===\n")
	logger.logf("Video Title: %s\n", videoTitle)
	logger.logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.logf("========================\n\n")
	return logger, nil
}

func (cl *CompletionLogger) logf(format string, args ...interface{}) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(cl.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	cl.file.Sync()
}

// LogRequest logs the prompt sent to the provider.
func (cl *CompletionLogger) LogRequest(prompt string) {
	cl.logf("=== REQUEST ===\n%s\n===============\n\n", prompt)
}

// LogResponse logs the raw completion text.
func (cl *CompletionLogger) LogResponse(raw string) {
	cl.logf("=== RESPONSE ===\n%s\n================\n\n", raw)
}

// Close closes the log file.
func (cl *CompletionLogger) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.file != nil {
		return cl.file.Close()
	}
	return nil
}
