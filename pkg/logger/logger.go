// Package logger defines the structured logging contract of the UATS console core.
// The zap-backed implementation lives in internal/infrastructure/monitoring.
package logger

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/uats/pkg/constants"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional fields
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger

	// SetLevel sets the logging level
	SetLevel(level constants.LogLevel)

	// GetLevel returns the current logging level
	GetLevel() constants.LogLevel
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Any creates a field with any type
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ================================================================================
// Utility Functions
// ================================================================================

// ContextFields extracts the request-scoped values carried on ctx
func ContextFields(ctx context.Context) map[string]interface{} {
	out := make(map[string]interface{})
	if requestID := ctx.Value(constants.ContextKeyRequestID); requestID != nil {
		out["request_id"] = requestID
	}
	if userID := ctx.Value(constants.ContextKeyUserID); userID != nil {
		out["user_id"] = userID
	}
	return out
}

var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"jwt",
	"api_key",
	"authorization",
	"private_key",
	"cookie",
}

// Sanitize masks values whose key names a credential
func Sanitize(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(keyLower, sensitiveKey) {
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			return "***REDACTED***"
		}
	}

	return value
}

// maskString partially masks a string value
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// ================================================================================
// Audit Logging
// ================================================================================

// AuditLogger is a specialized logger for user actions
type AuditLogger struct {
	logger Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.WithComponent("audit"),
	}
}

// LogAuditEvent logs an audit event
func (a *AuditLogger) LogAuditEvent(ctx context.Context, eventType constants.AuditEventType, fields ...Field) {
	auditFields := append([]Field{
		String("event_type", string(eventType)),
		String("event_category", "audit"),
		Time("event_timestamp", time.Now().UTC()),
	}, fields...)

	a.logger.Info(ctx, "Audit event", auditFields...)
}

// LogSessionChanged records a sign-in or sign-out observed from the identity provider
func (a *AuditLogger) LogSessionChanged(ctx context.Context, userID string, signedIn bool) {
	a.LogAuditEvent(ctx, constants.AuditEventSessionChanged,
		String("user_id", userID),
		Bool("signed_in", signedIn),
	)
}

// LogDeviceRegistered logs a completed registration ceremony
func (a *AuditLogger) LogDeviceRegistered(ctx context.Context, userID, keyName string) {
	a.LogAuditEvent(ctx, constants.AuditEventDeviceRegistered,
		String("user_id", userID),
		String("key_name", keyName),
	)
}

// LogDeviceValidated logs a completed authentication ceremony
func (a *AuditLogger) LogDeviceValidated(ctx context.Context, userID string) {
	a.LogAuditEvent(ctx, constants.AuditEventDeviceValidated,
		String("user_id", userID),
	)
}

// LogDeviceDeleted logs a removed security key
func (a *AuditLogger) LogDeviceDeleted(ctx context.Context, userID, deviceID string) {
	a.LogAuditEvent(ctx, constants.AuditEventDeviceDeleted,
		String("user_id", userID),
		String("device_id", deviceID),
	)
}

// LogTransferIssued logs a transfer instruction accepted by the backend
func (a *AuditLogger) LogTransferIssued(ctx context.Context, userID, from, to, coin, amount string) {
	a.LogAuditEvent(ctx, constants.AuditEventTransferIssued,
		String("user_id", userID),
		String("from_account", from),
		String("to_account", to),
		String("coin", coin),
		String("amount", amount),
	)
}

// LogProfileUpdated logs a saved profile change
func (a *AuditLogger) LogProfileUpdated(ctx context.Context, userID string) {
	a.LogAuditEvent(ctx, constants.AuditEventProfileUpdated,
		String("user_id", userID),
	)
}

// ================================================================================
// Performance Logging
// ================================================================================

// PerformanceLogger tracks operation performance
type PerformanceLogger struct {
	logger Logger
}

// NewPerformanceLogger creates a new performance logger
func NewPerformanceLogger(logger Logger) *PerformanceLogger {
	return &PerformanceLogger{
		logger: logger.WithComponent("performance"),
	}
}

// LogOperationDuration logs the duration of an operation
func (p *PerformanceLogger) LogOperationDuration(ctx context.Context, operation string, duration time.Duration, fields ...Field) {
	perfFields := append([]Field{
		String("operation", operation),
		Duration("duration", duration),
		Int64("duration_ms", duration.Milliseconds()),
	}, fields...)

	if duration > 1*time.Second {
		p.logger.Warn(ctx, "Slow operation detected", perfFields...)
	} else {
		p.logger.Debug(ctx, "Operation completed", perfFields...)
	}
}

// StartOperation creates a function to track operation duration
func (p *PerformanceLogger) StartOperation(ctx context.Context, operation string) func(...Field) {
	start := time.Now()

	return func(fields ...Field) {
		p.LogOperationDuration(ctx, operation, time.Since(start), fields...)
	}
}

//Personal.AI order the ending
