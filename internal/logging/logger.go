package logging

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "?????"
}

// Logger defines a minimal, printf-style logging contract.
//
// Components depend on this interface so tests can swap in a nop or a
// recording logger without touching writer configuration.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

var (
	defaultMu    sync.Mutex
	defaultOut   io.Writer = os.Stderr
	defaultLevel           = LevelInfo
)

// SetOutput redirects all component loggers to w.
func SetOutput(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOut = w
}

// SetLevel sets the minimum level emitted by component loggers.
func SetLevel(level Level) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLevel = level
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	return &componentLogger{component: component}
}

type componentLogger struct {
	component string
}

func (l *componentLogger) log(level Level, format string, args ...any) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if level < defaultLevel {
		return
	}

	component := l.component
	if component == "" {
		component = "antfarm"
	}

	// Format: 2025-09-30 12:34:56 [INFO] [scheduler] message
	fmt.Fprintf(defaultOut, "%s [%s] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level, component, fmt.Sprintf(format, args...))
}

func (l *componentLogger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *componentLogger) Error(format string, args ...any) { l.log(LevelError, format, args...) }
