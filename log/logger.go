package log

// Logger is the interface for a logging component, providing structured
// logging at the usual severity levels through fluent LogEvent chains.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Fatal() *LogEvent
	GetAppender() []LogAppender
	AddAppender(appender LogAppender)
	OnEventEnd(e *LogEvent)
}

var _defaultLogger *FleetLogger

func init() {
	// Initialize with default settings. Initialize() may be called later with
	// a specific configuration.
	_defaultLogger = NewLogger(getDefaultCfg())
}

// Initialize configures the default logger with the given configuration.
// If cfg is nil, defaults are used. Call once at application startup.
func Initialize(cfg *LogCfg) error {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	SetDefaultLogger(NewLogger(cfg))
	return nil
}

// SetDefaultLogger replaces the default logger with a custom instance.
func SetDefaultLogger(logger *FleetLogger) {
	_defaultLogger = logger
}

// AddAppender adds a new log appender to the default logger.
func AddAppender(appender LogAppender) {
	_defaultLogger.AddAppender(appender)
}

// Refresh flushes all appenders of the default logger.
func Refresh() {
	_defaultLogger.Refresh()
}

// Close flushes and closes the default logger and its appenders. It should be
// called at application shutdown to ensure all entries are written.
func Close() {
	_defaultLogger.Close()
}

// Debug creates a debug-level log event on the default logger.
func Debug() *LogEvent {
	return _defaultLogger.Debug()
}

// Info creates an info-level log event on the default logger.
func Info() *LogEvent {
	return _defaultLogger.Info()
}

// Warn creates a warn-level log event on the default logger.
func Warn() *LogEvent {
	return _defaultLogger.Warn()
}

// Error creates an error-level log event on the default logger.
func Error() *LogEvent {
	return _defaultLogger.Error()
}

// Fatal creates a fatal-level log event on the default logger.
func Fatal() *LogEvent {
	return _defaultLogger.Fatal()
}
