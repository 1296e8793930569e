// Package logger initializes the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var globalLogger *slog.Logger

// Options controls logger initialization.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // optional path; enables rotating file output
}

// InitLogger configures the global logger and sets slog's default.
func InitLogger(opts Options) error {
	var slogLevel slog.Level
	switch opts.Level {
	case "", "info":
		slogLevel = slog.LevelInfo
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", opts.Level)
	}

	// Logs go to stderr so piped exports on stdout stay clean; a file
	// target switches to rotating output instead.
	var out io.Writer = os.Stderr
	if opts.File != "" {
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slogLevel})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel})
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// GetLogger returns the global logger, or slog's default before InitLogger.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
