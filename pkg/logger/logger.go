package logger

import (
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelDebug
	LevelTrace
)

// Logger wraps the standard logger with Info/Warn output that is always
// printed and Debug/Trace output that depends on the verbosity settings.
type Logger struct {
	*log.Logger
	level     LogLevel
	isVerbose bool
}

type Option func(*Logger)

func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.Logger = log.New(w, l.Logger.Prefix(), l.Logger.Flags())
	}
}

func WithPrefix(prefix string) Option {
	return func(l *Logger) {
		l.Logger = log.New(l.Logger.Writer(), prefix, l.Logger.Flags())
	}
}

func WithFlags(flags int) Option {
	return func(l *Logger) {
		l.Logger = log.New(l.Logger.Writer(), l.Logger.Prefix(), flags)
	}
}

// WithLevel sets the level and turns on verbose output for anything above
// LevelInfo.
func WithLevel(level LogLevel) Option {
	return func(l *Logger) {
		l.level = level
		if level > LevelInfo {
			l.isVerbose = true
		}
	}
}

func New(options ...Option) *Logger {
	l := &Logger{
		Logger:    log.New(os.Stdout, "", log.LstdFlags),
		level:     LevelInfo,
		isVerbose: false,
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(WithOutput(io.Discard), WithFlags(0))
}

func (l *Logger) SetVerbose(verbose bool) {
	l.isVerbose = verbose
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) IsVerbose() bool {
	return l.isVerbose
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.printf("INFO: ", format, args...)
}

// Warn reports a degraded but non-fatal condition.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf("WARN: ", format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.isVerbose {
		l.printf("DEBUG: ", format, args...)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LevelTrace {
		l.printf("TRACE: ", format, args...)
	}
}

func (l *Logger) printf(prefix, format string, args ...interface{}) {
	l.Logger.Printf(prefix+format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Logger.Fatalf("FATAL: "+format, args...)
}
