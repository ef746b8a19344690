// Package micrlog provides leveled logging over the standard library's
// log.Logger plus a bounded ring buffer that retains recent debug lines so a
// slow or hung request can flush its verbose history on the way out.
package micrlog

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/finos/micrscan/internal/micrerr"
)

// Level is a logging verbosity, ordered least to most verbose.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel maps a config/request logLevel string to a Level. An unknown
// level is a Configuration error per spec.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return 0, micrerr.Configuration("invalid log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Logger is a leveled logger with a bounded debug ring buffer, one per
// request per spec.md's per-request scope.
type Logger struct {
	mu     sync.Mutex
	out    *log.Logger
	level  Level
	ring   []string
	ringN  int
	cursor int
}

// New creates a Logger writing to stderr at the given level, retaining up
// to bufferSize recent debug lines for later flushing.
func New(level Level, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Logger{
		out:   log.New(os.Stderr, "", log.LstdFlags),
		level: level,
		ring:  make([]string, bufferSize),
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	if level == LevelDebug {
		l.ring[l.cursor%len(l.ring)] = line
		l.cursor++
		if l.ringN < len(l.ring) {
			l.ringN++
		}
	}
	emit := level <= l.level
	l.mu.Unlock()

	if emit {
		l.out.Print(line)
	}
}

// Error logs at error level; always emitted.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Debug records a debug line in the ring buffer, emitting it immediately
// only if the logger's level is LevelDebug.
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }

// FlushBuffered writes every retained ring-buffer line to the log
// immediately, regardless of the logger's configured level. Used when a
// request crosses its slow/hung threshold so the operator gets the full
// trail without running every request at debug level.
func (l *Logger) FlushBuffered(level Level) {
	l.mu.Lock()
	n := l.ringN
	start := l.cursor - n
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		idx := (start + i) % len(l.ring)
		if idx < 0 {
			idx += len(l.ring)
		}
		lines[i] = l.ring[idx]
	}
	l.mu.Unlock()

	l.out.Printf("[%s] --- flushing %d buffered log lines ---", level, n)
	for _, line := range lines {
		l.out.Print(line)
	}
}
