// Package logger provides structured logging for respkv.
//
// It wraps the standard library log/slog:
//
//   - JSON and text output formats
//   - A process-wide level that can change at runtime (SetLevel)
//   - Truncation of client payloads logged under "value" or "message"
//   - Redaction of attributes whose names look like secrets
package logger
