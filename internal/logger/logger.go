package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"github.com/rs/zerolog"
)

var std = &Log{zl: zerolog.Nop()}

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Log is the zerolog-backed Logger implementation.
type Log struct {
	zl zerolog.Logger
}

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the package logger based on the given configuration
func Init(debug, verbose, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	std = New(output)

	SetLogLevel(WarnLevel) // Default log level

	if debug {
		SetLogLevel(DebugLevel)
	} else if verbose {
		SetLogLevel(InfoLevel)
	}
}

// New returns a Logger writing to w.
func New(w io.Writer) *Log {
	return &Log{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards everything.
func Nop() *Log {
	return &Log{zl: zerolog.Nop()}
}

// Default returns the package logger configured by Init.
func Default() *Log {
	return std
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// ParseLevel maps a configured level name onto a LogLevel.
func ParseLevel(name string) (LogLevel, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	default:
		return WarnLevel, false
	}
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

func (l *Log) Debug() *LogEvent {
	return &LogEvent{l.zl.Debug()}
}

func (l *Log) Info() *LogEvent {
	return &LogEvent{l.zl.Info()}
}

func (l *Log) Warn() *LogEvent {
	return &LogEvent{l.zl.Warn()}
}

func (l *Log) Error() *LogEvent {
	return &LogEvent{l.zl.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func (l *Log) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{l.zl.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// Debug logs a debug message
func Debug() *LogEvent {
	return std.Debug()
}

// Info logs an info message
func Info() *LogEvent {
	return std.Info()
}

// Warn logs a warning message
func Warn() *LogEvent {
	return std.Warn()
}

// Error logs an error message
func Error() *LogEvent {
	return std.Error()
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return std.ErrorWithCode(err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{std.zl.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return &LogEvent{std.zl.Fatal().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}
