package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const logFilePrefix = "status-api-"

var numberedLogFile = regexp.MustCompile(`^status-api-\d{4}-W\d{2}(?:_(\d{2}))?\.log$`)

// RotatingFile is an io.Writer that starts a new file every ISO week and
// whenever the current file would grow past maxFileSize.
// Retention cleanup is driven externally through Cleanup.
type RotatingFile struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64
	now         func() time.Time

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize int64
}

// NewRotatingFile creates the log directory and opens the file for the current week
func NewRotatingFile(logDir string, retentionWeeks int, maxFileSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	rf := &RotatingFile{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}

	rf.mu.Lock()
	defer rf.mu.Unlock()
	if err := rf.rotate(getWeekKey(rf.now()), false); err != nil {
		return nil, err
	}

	return rf, nil
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotate opens the file to write to for week; caller must hold mu
func (rf *RotatingFile) rotate(week string, full bool) error {
	if rf.currentFile != nil {
		_ = rf.currentFile.Close()
		rf.currentFile = nil
	}

	name := rf.pickFile(week, full)
	path := filepath.Join(rf.logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rf.currentFile = file
	rf.currentWeek = week
	rf.currentSize = size
	return nil
}

// pickFile returns the newest file of the week that still has room,
// or the next numbered file when it is full
func (rf *RotatingFile) pickFile(week string, full bool) string {
	base := logFilePrefix + week + ".log"
	matches, _ := filepath.Glob(filepath.Join(rf.logDir, logFilePrefix+week+"_??.log"))
	sort.Strings(matches)

	highest := 0
	latest := base
	for _, match := range matches {
		sub := numberedLogFile.FindStringSubmatch(filepath.Base(match))
		if len(sub) < 2 || sub[1] == "" {
			continue
		}
		if n, err := strconv.Atoi(sub[1]); err == nil && n > highest {
			highest = n
			latest = filepath.Base(match)
		}
	}

	if !full {
		info, err := os.Stat(filepath.Join(rf.logDir, latest))
		if err != nil || rf.maxFileSize <= 0 || info.Size() < rf.maxFileSize {
			return latest
		}
	}

	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, highest+1)
}

// Write writes p to the current file, rotating first when needed
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	week := getWeekKey(rf.now())
	switch {
	case week != rf.currentWeek || rf.currentFile == nil:
		if err := rf.rotate(week, false); err != nil {
			return 0, err
		}
	case rf.maxFileSize > 0 && rf.currentSize > 0 && rf.currentSize+int64(len(p)) > rf.maxFileSize:
		if err := rf.rotate(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rf.currentFile.Write(p)
	rf.currentSize += int64(n)
	return n, err
}

// Cleanup removes log files last modified before the retention period
// and returns how many were deleted.
func (rf *RotatingFile) Cleanup() (int, error) {
	entries, err := os.ReadDir(rf.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	rf.mu.Lock()
	current := ""
	if rf.currentFile != nil {
		current = filepath.Base(rf.currentFile.Name())
	}
	rf.mu.Unlock()

	cutoff := rf.now().Add(-rf.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == current || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rf.logDir, name)); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Close closes the current file
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.currentFile == nil {
		return nil
	}
	err := rf.currentFile.Close()
	rf.currentFile = nil
	return err
}
