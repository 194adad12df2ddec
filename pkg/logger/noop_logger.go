package logger

import (
	"context"

	"github.com/turtacn/uats/pkg/constants"
)

type noopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(ctx context.Context, msg string, fields ...Field)            {}
func (l *noopLogger) Info(ctx context.Context, msg string, fields ...Field)             {}
func (l *noopLogger) Warn(ctx context.Context, msg string, fields ...Field)             {}
func (l *noopLogger) Error(ctx context.Context, msg string, err error, fields ...Field) {}
func (l *noopLogger) Fatal(ctx context.Context, msg string, err error, fields ...Field) {}
func (l *noopLogger) WithFields(fields ...Field) Logger {
	return l
}
func (l *noopLogger) WithComponent(component string) Logger {
	return l
}
func (l *noopLogger) SetLevel(level constants.LogLevel) {}
func (l *noopLogger) GetLevel() constants.LogLevel {
	return constants.LogLevelFatal
}
