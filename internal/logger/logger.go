package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var DebugMode bool

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	handle = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level}))
)

// Init reads DEBUG from the environment. Output is discarded until SetOutput
// is called so the terminal front ends stay clean.
func Init() {
	if os.Getenv("DEBUG") == "true" {
		DebugMode = true
	}
	syncLevel()
}

// SetDebug toggles debug output at runtime.
func SetDebug(on bool) {
	DebugMode = on
	syncLevel()
}

// SetOutput sets the output destination for all log records
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	handle = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func syncLevel() {
	if DebugMode {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

func logf(l slog.Level, format string, v ...interface{}) {
	mu.RLock()
	h := handle
	mu.RUnlock()
	if !h.Enabled(context.Background(), l) {
		return
	}
	h.Log(context.Background(), l, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	logf(slog.LevelDebug, format, v...)
}

func Info(format string, v ...interface{}) {
	logf(slog.LevelInfo, format, v...)
}

func Warn(format string, v ...interface{}) {
	logf(slog.LevelWarn, format, v...)
}

func Error(format string, v ...interface{}) {
	logf(slog.LevelError, format, v...)
}
