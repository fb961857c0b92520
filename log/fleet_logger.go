package log

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FleetLogger is the standard logger of the keelson backend. It is
// goroutine-safe, reuses LogEvent objects through a sync.Pool to keep the hot
// path allocation-free, and fans every entry out to its configured appenders.
//
// Example:
//
//	logger := NewLogger(&LogCfg{
//	    LogLevel:        InfoLevel,
//	    ConsoleAppender: true,
//	})
//	logger.Info().Str("pool", "modbus").Int("active", 7).Msg("pool started")
type FleetLogger struct {
	appenders         []LogAppender // Output destinations.
	minLevel          atomic.Int32  // Minimum level that will be processed.
	callerSkip        int           // Extra stack frames to skip for caller capture.
	eventPool         *sync.Pool    // Recycles LogEvent instances.
	callerCache       sync.Map      // Caches resolved caller info per PC.
	enabledCallerInfo bool
}

// NewLogger creates a FleetLogger from the given configuration. A nil cfg
// falls back to the package defaults.
func NewLogger(cfg *LogCfg) *FleetLogger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}

	logger := &FleetLogger{
		callerSkip:        cfg.CallerSkip,
		enabledCallerInfo: cfg.EnabledCallerInfo,
	}
	logger.minLevel.Store(int32(cfg.LogLevel))

	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	if cfg.FileAppender {
		fa, err := NewFileAppender(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "keelson/log: file appender disabled: %v\n", err)
		} else {
			logger.AddAppender(fa)
		}
	}

	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	return logger
}

// SetLevel adjusts the minimum level at runtime.
func (x *FleetLogger) SetLevel(level Level) {
	x.minLevel.Store(int32(level))
}

func (x *FleetLogger) checkLevel(level Level) bool {
	return Level(x.minLevel.Load()) <= level
}

// AddAppender registers an additional output destination. Appenders must be
// added before the logger is shared between goroutines.
func (x *FleetLogger) AddAppender(appender LogAppender) {
	x.appenders = append(x.appenders, appender)
}

// GetAppender returns the registered appenders.
func (x *FleetLogger) GetAppender() []LogAppender {
	return x.appenders
}

// Refresh flushes all registered appenders.
func (x *FleetLogger) Refresh() {
	for _, appender := range x.appenders {
		appender.Refresh()
	}
}

// Close closes all registered appenders, flushing buffered entries.
func (x *FleetLogger) Close() {
	for _, appender := range x.appenders {
		appender.Close()
	}
}

func (x *FleetLogger) newEvent() *LogEvent {
	e := x.eventPool.Get().(*LogEvent)
	e.Reset()
	return e
}

// OnEventEnd routes a finished event to every appender and recycles it.
// Fatal events terminate the process via panic after the write.
func (x *FleetLogger) OnEventEnd(e *LogEvent) {
	for _, appender := range x.appenders {
		appender.Write(e.buf.Bytes())
	}

	if e.level == FatalLevel {
		panic("fatal log event")
	}

	x.eventPool.Put(e)
}

// Debug creates a debug-level event, or returns nil when filtered.
func (x *FleetLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates an info-level event, or returns nil when filtered.
func (x *FleetLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a warn-level event, or returns nil when filtered.
func (x *FleetLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates an error-level event, or returns nil when filtered.
func (x *FleetLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a fatal-level event. The process panics once the event is
// written.
func (x *FleetLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}

// getCallerInfo resolves the logging call site, caching results per program
// counter since call sites repeat heavily.
func (x *FleetLogger) getCallerInfo() *callerInfo {
	pc, file, line, ok := runtime.Caller(3 + x.callerSkip)
	if !ok {
		return _UnknownCallerInfo
	}

	if cached, found := x.callerCache.Load(pc); found {
		return cached.(*callerInfo)
	}

	funcName := runtime.FuncForPC(pc).Name()
	var function string
	if dotIdx := strings.LastIndexByte(funcName, '.'); dotIdx != -1 {
		function = funcName[dotIdx+1:]
	} else {
		function = funcName
	}

	// Keep only the last two path elements of the file for readability.
	if lastSlash := strings.LastIndexByte(file, '/'); lastSlash > 0 {
		if secondLastSlash := strings.LastIndexByte(file[:lastSlash], '/'); secondLastSlash >= 0 {
			file = file[secondLastSlash+1:]
		}
	}

	c := newCallerInfo(file, function, line)
	x.callerCache.Store(pc, c)
	return c
}

// log prepares an event with the common fields (timestamp, level, caller).
// Returns nil when the level is filtered out.
func (x *FleetLogger) log(level Level) *LogEvent {
	if !x.checkLevel(level) {
		return nil
	}

	e := x.newEvent()
	e.level = level

	t := time.Now()
	e.Time("time", &t)
	e.Str("level", level.String())

	if x.enabledCallerInfo {
		e.Str("caller", x.getCallerInfo().String())
	}

	return e
}
