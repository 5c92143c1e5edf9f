// Package logging provides the leveled logger the pipeline components
// share. Output goes through the standard library logger with a level
// tag and a bracketed component prefix.
package logging

import (
	"log"
	"os"
)

// Level represents logging verbosity
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger provides leveled logging for one component
type Logger struct {
	level     Level
	component string
}

// New creates a logger for the named component at the given level
func New(component string, level Level) *Logger {
	return &Logger{level: level, component: component}
}

// NewDefault creates a component logger with the level taken from the
// LOG_LEVEL environment variable (default INFO)
func NewDefault(component string) *Logger {
	return New(component, LevelFromEnv())
}

// LevelFromEnv reads LOG_LEVEL, defaulting to INFO
func LevelFromEnv() Level {
	switch os.Getenv("LOG_LEVEL") {
	case "ERROR":
		return LevelError
	case "WARN":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LevelError {
		log.Printf("[ERROR] ["+l.component+"] "+format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LevelWarn {
		log.Printf("[WARN] ["+l.component+"] "+format, args...)
	}
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LevelInfo {
		log.Printf("[INFO] ["+l.component+"] "+format, args...)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LevelDebug {
		log.Printf("[DEBUG] ["+l.component+"] "+format, args...)
	}
}
