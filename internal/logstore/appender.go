package logstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilename is the name of the active log file inside the logs directory.
const LogFilename = "application.log"

// Appender serializes records onto the active log file, one JSON object per
// line. Rotation is handled by lumberjack based on the configured size and
// backup bounds. A single Appender instance must own the file; every producer
// writes through it.
type Appender struct {
	mu     sync.Mutex
	path   string
	writer *lumberjack.Logger
}

func NewAppender(path string, settings Settings) *Appender {
	return &Appender{
		path: path,
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB(settings.MaxBytes),
			MaxBackups: settings.Backups,
		},
	}
}

func (a *Appender) Path() string {
	return a.path
}

// Append writes one record as a JSON line.
func (a *Appender) Append(record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal log record: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write log line: %w", err)
	}
	return nil
}

// Configure applies new rotation bounds. They take effect on the next write.
func (a *Appender) Configure(settings Settings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writer.MaxSize = maxSizeMB(settings.MaxBytes)
	a.writer.MaxBackups = settings.Backups
}

// Truncate empties the active log file in place. The underlying writer is
// closed first so the next append reopens the truncated file.
func (a *Appender) Truncate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writer.Close(); err != nil {
		return fmt.Errorf("failed to close log writer: %w", err)
	}
	handle, err := os.OpenFile(a.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}
	if err := handle.Close(); err != nil {
		return fmt.Errorf("failed to close truncated log file: %w", err)
	}
	return nil
}

// RemoveBackups deletes rotated copies of the log file. Both lumberjack
// naming (name-<timestamp>.log, optionally gzipped) and plain numeric
// suffixes left by older tooling are covered. Already-missing files are not
// errors.
func (a *Appender) RemoveBackups() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir := filepath.Dir(a.path)
	base := filepath.Base(a.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	patterns := []string{
		filepath.Join(dir, prefix+"-*"+ext),
		filepath.Join(dir, prefix+"-*"+ext+".gz"),
		a.path + ".*",
	}

	var errs error
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, backup := range matches {
			if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
				errs = multierr.Append(errs, fmt.Errorf("failed to remove backup %s: %w", backup, err))
			}
		}
	}
	return errs
}

func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writer.Close()
}

// maxSizeMB converts a byte bound to the whole megabytes lumberjack expects,
// never dropping below one.
func maxSizeMB(maxBytes int64) int {
	mb := int(maxBytes / (1024 * 1024))
	if mb < 1 {
		return 1
	}
	return mb
}
