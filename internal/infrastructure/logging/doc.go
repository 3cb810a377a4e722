// Package logging provides structured logging for Taskforge.
//
// It wraps the standard library log/slog with configuration-driven setup:
// output format (JSON or text), level filtering, and default service
// attributes attached to every record.
//
// Thread Safety: all methods are safe for concurrent use.
package logging
