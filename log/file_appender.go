package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileAppender writes log entries to a file and rotates it once the size
// threshold from LogCfg.FileSplitMB is exceeded. Rotated files are renamed
// with a timestamp suffix; the appender keeps writing to the configured path.
type FileAppender struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	written  int64
	splitMax int64
}

// NewFileAppender opens (or creates) the log file at cfg.LogPath. Parent
// directories are created as needed.
func NewFileAppender(cfg *LogCfg) (*FileAppender, error) {
	if cfg == nil || cfg.LogPath == "" {
		return nil, fmt.Errorf("file appender requires a log path")
	}

	if dir := filepath.Dir(cfg.LogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	fa := &FileAppender{
		path:     cfg.LogPath,
		splitMax: int64(cfg.FileSplitMB) * 1024 * 1024,
	}
	if err := fa.open(); err != nil {
		return nil, err
	}
	return fa, nil
}

func (fa *FileAppender) open() error {
	f, err := os.OpenFile(fa.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	fa.file = f
	fa.written = info.Size()
	return nil
}

// Write appends the entry to the current file, rotating first when the split
// threshold has been reached.
func (fa *FileAppender) Write(buf []byte) (int, error) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.splitMax > 0 && fa.written+int64(len(buf)) > fa.splitMax {
		if err := fa.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := fa.file.Write(buf)
	fa.written += int64(n)
	return n, err
}

// rotate renames the active file with a timestamp suffix and reopens the
// configured path. Callers must hold fa.mu.
func (fa *FileAppender) rotate() error {
	if err := fa.file.Close(); err != nil {
		return fmt.Errorf("close log file for rotation: %w", err)
	}
	rotated := fmt.Sprintf("%s.%s", fa.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(fa.path, rotated); err != nil {
		// Reopen the original path regardless so logging keeps working.
		_ = fa.open()
		return fmt.Errorf("rotate log file: %w", err)
	}
	return fa.open()
}

// Refresh syncs buffered data to disk.
func (fa *FileAppender) Refresh() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.file == nil {
		return nil
	}
	return fa.file.Sync()
}

// Close syncs and closes the underlying file.
func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.file == nil {
		return nil
	}
	if err := fa.file.Sync(); err != nil {
		return err
	}
	err := fa.file.Close()
	fa.file = nil
	return err
}
