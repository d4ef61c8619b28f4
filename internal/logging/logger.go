// Package logging provides the diagnostic logging interface used across
// the flash log's internal packages.
//
// Design: a small four-level interface (Error, Warn, Info, Debug), the same
// shape the teacher codebase uses, so callers can wrap their own structured
// logger if they want one. There is no Fatalf/background-error handling
// here — unlike a multi-writer LSM engine, this system has no background
// threads that can fail independently of the caller's own goroutine, so
// there is nothing for a fatal handler to transition into a stopped state.
//
// Log format: YYYY/MM/DD HH:MM:SS LEVEL [component] message
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
)

// Level represents the logging level.
type Level int

const (
	// LevelError logs only errors.
	LevelError Level = iota
	// LevelWarn logs warnings and errors.
	LevelWarn
	// LevelInfo logs info, warnings, and errors.
	LevelInfo
	// LevelDebug logs everything including debug messages.
	LevelDebug
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the interface for internal diagnostic logging.
//
// Concurrency: DefaultLogger and Discard are safe for concurrent use.
// A caller-supplied Logger shared with other goroutines must be safe for
// concurrent use. Within a DB, only Open (via Options.Validate) and the
// flush path log; the ring and the Write path do not.
type Logger interface {
	Errorf(format string, args ...any)
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
}

// DefaultLogger writes to a specified output at a fixed level.
// It is stateless beyond the underlying *log.Logger and is safe for
// concurrent use (log.Logger serializes its own writes).
type DefaultLogger struct {
	logger *log.Logger
	level  Level
}

// NewDefaultLogger creates a logger that writes to stderr.
func NewDefaultLogger(level Level) *DefaultLogger {
	return NewLogger(os.Stderr, level)
}

// NewLogger creates a logger that writes to w.
func NewLogger(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// Level returns the logger's configured level.
func (l *DefaultLogger) Level() Level { return l.level }

func (l *DefaultLogger) Errorf(format string, args ...any) {
	if l.level >= LevelError {
		_ = l.logger.Output(2, "ERROR "+fmt.Sprintf(format, args...))
	}
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	if l.level >= LevelWarn {
		_ = l.logger.Output(2, "WARN "+fmt.Sprintf(format, args...))
	}
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	if l.level >= LevelInfo {
		_ = l.logger.Output(2, "INFO "+fmt.Sprintf(format, args...))
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.level >= LevelDebug {
		_ = l.logger.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
	}
}

// Namespace prefixes for log messages, applied by the callers that own
// each concern (segment commit/verify, allocator, recovery scan, DB facade).
const (
	NSSegment  = "[segment] "
	NSAlloc    = "[alloc] "
	NSRecovery = "[recovery] "
	NSDB       = "[db] "
)

// IsNil reports whether l is nil or a typed-nil interface value — a nil
// pointer assigned to a Logger field is not itself a nil interface, and
// calling a method on it panics unless callers guard with this check.
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// OrDefault returns l if valid, otherwise the Discard logger.
func OrDefault(l Logger) Logger {
	if IsNil(l) {
		return Discard
	}
	return l
}
