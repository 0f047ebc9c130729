// Package logging provides a minimal logging interface and adapters for the
// interview simulator.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, capabilities and server use. This package
// includes:
//
//   - Logger interface for dependency injection
//   - StructuredLogger, a slog backed logger with session/component helpers
//   - A colored console handler for local runs
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "console"})
//	orch := interview.NewOrchestrator(conn, deps, func(o *interview.Options) { o.Logger = logger })
package logging
