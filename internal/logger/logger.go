// Package logger provides the process-wide structured logger.
//
// Diagnostics go to stderr so that stdout carries only command output.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu       sync.Mutex
	root     *slog.Logger
	levelVar = new(slog.LevelVar)
)

func init() {
	levelVar.Set(slog.LevelWarn)
}

// Init replaces the root logger with a text handler writing to w.
func Init(w io.Writer, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()

	levelVar.Set(level)
	root = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
}

// SetDebug enables or disables debug level logging
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelWarn)
	}
}

// Get returns the root logger, initializing it on stderr if needed.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if root == nil {
		root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	}
	return root
}

// WithComponent returns a logger with the component name attached.
//
//	log := logger.WithComponent("decoder")
//	log.Debug("decoded", "path", path)
//	// Output: level=DEBUG msg=decoded component=decoder path=./a.out
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

// Reset drops the configured logger. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	root = nil
	levelVar.Set(slog.LevelWarn)
}
