// logging.go - process-wide structured logging

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"log/slog"
	"os"
	"sync"
)

var (
	logLevel    = new(slog.LevelVar)
	rootLogger  *slog.Logger
	loggerMu    sync.RWMutex
	logInitOnce sync.Once
)

// replaceLogAttr trims timestamps to second precision; every other attr,
// including the level, passes through unchanged.
func replaceLogAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05Z07:00"))
	}
	return a
}

// initLogging builds the process-wide logger from ALSOFT_LOGLEVEL and
// ALSOFT_LOGFILE. Safe to call more than once; only the first call takes
// effect.
func initLogging() {
	logInitOnce.Do(func() {
		logLevel.Set(levelFromEnv())
		w := logWriterFromEnv()
		handler := slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       logLevel,
			ReplaceAttr: replaceLogAttr,
		})
		loggerMu.Lock()
		rootLogger = slog.New(handler)
		loggerMu.Unlock()
	})
}

// logger returns the process-wide logger, initializing it on first use.
func logger() *slog.Logger {
	initLogging()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return rootLogger
}

// componentLogger returns a child logger tagged with the given subsystem
// name, mirroring the per-module logger convention used for device,
// context, mixer, and hrtf subsystems.
func componentLogger(name string) *slog.Logger {
	return logger().With("component", name)
}

func logWriterFromEnv() *os.File {
	if path := envLogFile(); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			return f
		}
	}
	return os.Stderr
}

// levelFromEnv maps ALSOFT_LOGLEVEL (0-5) to an slog level: 0 disables
// logging, 1 lets only errors surface, 4 and 5 both enable debug output.
func levelFromEnv() slog.Level {
	switch envLogLevel() {
	case 0:
		return slog.LevelError + 4
	case 1:
		return slog.LevelError
	case 2:
		return slog.LevelWarn
	case 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
