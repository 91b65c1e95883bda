// Package logging provides the leveled logger used by the converter and the
// conversion server.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps a level name to a Level. ok is false for unknown names.
func ParseLevel(s string) (level Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// Logger writes leveled messages as "[LEVEL] msg" lines or as JSON objects.
type Logger struct {
	mu     sync.RWMutex
	outMu  sync.Mutex // serializes JSON writes to out
	level  Level
	format string
	out    io.Writer
	logger *log.Logger
	now    func() time.Time
}

// New returns an info-level text logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{
		level:  LevelInfo,
		format: FormatText,
		out:    w,
		logger: log.New(w, "", log.LstdFlags|log.LUTC),
		now:    time.Now,
	}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the default logger instance
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr)
	})
	return defaultLogger
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetLevelFromString sets the log level from a string, falling back to info.
func (l *Logger) SetLevelFromString(levelStr string) {
	level, _ := ParseLevel(levelStr)
	l.SetLevel(level)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// GetLevelString returns the current log level as a string
func (l *Logger) GetLevelString() string {
	return levelNames[l.GetLevel()]
}

// SetFormat selects text or json output. Unknown names select text.
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if strings.EqualFold(format, FormatJSON) {
		l.format = FormatJSON
		return
	}
	l.format = FormatText
}

// SetOutput redirects the logger to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.logger.SetOutput(w)
}

// Configure applies level, format and, when w is non-nil, the output writer.
func (l *Logger) Configure(level, format string, w io.Writer) {
	l.SetLevelFromString(level)
	l.SetFormat(format)
	if w != nil {
		l.SetOutput(w)
	}
}

type jsonEntry struct {
	Time  string `json:"time"`
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.format != FormatJSON {
		l.logger.Printf("[%s] %s", levelNames[level], msg)
		return
	}

	line, err := json.Marshal(jsonEntry{
		Time:  l.now().UTC().Format(time.RFC3339Nano),
		Level: strings.ToLower(levelNames[level]),
		Msg:   msg,
	})
	if err != nil {
		l.logger.Printf("[%s] %s", levelNames[level], msg)
		return
	}
	l.outMu.Lock()
	_, _ = l.out.Write(append(line, '\n'))
	l.outMu.Unlock()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions

// SetLevel sets the default logger's level
func SetLevel(level Level) {
	Default().SetLevel(level)
}

// SetLevelFromString sets the default logger's level from a string
func SetLevelFromString(levelStr string) {
	Default().SetLevelFromString(levelStr)
}

// GetLevelString returns the default logger's level as a string
func GetLevelString() string {
	return Default().GetLevelString()
}

// Configure configures the default logger.
func Configure(level, format string, w io.Writer) {
	Default().Configure(level, format, w)
}

// Debug logs a debug message to the default logger
func Debug(format string, args ...interface{}) {
	Default().Debug(format, args...)
}

// Info logs an info message to the default logger
func Info(format string, args ...interface{}) {
	Default().Info(format, args...)
}

// Warn logs a warning message to the default logger
func Warn(format string, args ...interface{}) {
	Default().Warn(format, args...)
}

// Error logs an error message to the default logger
func Error(format string, args ...interface{}) {
	Default().Error(format, args...)
}
