// Package logger builds configured slog.Logger instances for the
// smart-subscription services, with JSON/text formats, static attributes
// and context-driven attribute injection.
package logger
