package logger_test

import (
	"log/slog"

	"github.com/parchmentlabs/folio/pkg/logger"
)

func ExampleNewDefaultLogger() {
	// Create a logger with default settings
	log := logger.NewDefaultLogger(slog.LevelDebug)

	// Log different levels
	log.Debug("This is a debug message")
	log.Info("This is an info message")
	log.Warn("This is a warning message") // Will be yellow in terminal
	log.Error("This is an error message") // Will be red in terminal
}

func ExampleNew() {
	// Create a logger from configuration values
	log := logger.New("info", "text")

	// Log with attributes
	log.Info("Indexing document", "identifier", "memoirsofnapoleon", "chunks", 42)
	log.Warn("Download slow", "item", "memoirsofnapoleon", "elapsed", "12s")
	log.Error("Store write failed", "error", "timeout", "retry_count", 3)
}
