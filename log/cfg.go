package log

import (
	"fmt"
	"path/filepath"
)

// LogCfg configures the keelson logging framework. It covers output
// destinations, severity filtering, file rotation and caller capture, and is
// decoded from the `[log]` section of the backend's TOML configuration.
type LogCfg struct {
	// LogPath is the target log file path for file-based output. Relative and
	// absolute paths are accepted.
	LogPath string `mapstructure:"path"`

	// LogLevel is the minimum severity that will be written.
	LogLevel Level `mapstructure:"level"`

	// FileSplitMB is the rotation threshold in megabytes; when the current
	// log file exceeds it, a new file is started.
	FileSplitMB int `mapstructure:"splitMB"`

	// CallerSkip is the number of extra stack frames to skip when capturing
	// caller information. Useful when the logger is wrapped.
	CallerSkip int `mapstructure:"callerSkip"`

	// FileAppender enables file output.
	FileAppender bool `mapstructure:"fileAppender"`

	// ConsoleAppender enables stdout output. Convenient for development and
	// containerized deployments.
	ConsoleAppender bool `mapstructure:"consoleAppender"`

	// EnabledCallerInfo enables file:line caller capture on every event.
	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo"`
}

// Validate checks the configuration for consistency before it is applied.
func (cfg *LogCfg) Validate() error {
	if cfg.LogLevel < TraceLevel || cfg.LogLevel > FatalLevel {
		return fmt.Errorf("invalid log level: %d, must be between %d (Trace) and %d (Fatal)",
			cfg.LogLevel, TraceLevel, FatalLevel)
	}

	if cfg.FileSplitMB < 1 || cfg.FileSplitMB > 1024 {
		return fmt.Errorf("file split size must be between 1MB and 1024MB, got %dMB", cfg.FileSplitMB)
	}

	if cfg.CallerSkip < 0 {
		return fmt.Errorf("caller skip must be non-negative, got %d", cfg.CallerSkip)
	}

	if cfg.FileAppender && cfg.LogPath == "" {
		return fmt.Errorf("log path cannot be empty when file appender is enabled")
	}

	if cfg.FileAppender && cfg.LogPath != "" {
		cfg.LogPath = filepath.Clean(cfg.LogPath)
	}

	if !cfg.FileAppender && !cfg.ConsoleAppender {
		return fmt.Errorf("at least one appender (file or console) must be enabled")
	}

	return nil
}

var _defaultCfg = &LogCfg{
	LogPath:           "./keelson.log",
	LogLevel:          DebugLevel,
	FileSplitMB:       50,
	CallerSkip:        1,
	FileAppender:      false,
	ConsoleAppender:   true,
	EnabledCallerInfo: true,
}

func getDefaultCfg() *LogCfg {
	return _defaultCfg
}
