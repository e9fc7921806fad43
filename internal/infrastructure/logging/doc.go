// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Session loggers are children of the process logger carrying session and
// engine fields. A session started with debug enabled logs at debug level
// regardless of the process level.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "3000"))
//	slog := logger.ForSession("default", "WEBJS", true)
//	slog.Debug("engine frame", zap.String("event", "message"))
package logging
