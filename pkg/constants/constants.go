// Package constants defines system-wide constants for the UATS console core.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Notification Severity Constants
// ================================================================================

// Severity represents the severity of a user-facing notification
type Severity string

const (
	// SeveritySuccess reports a completed action
	SeveritySuccess Severity = "success"

	// SeverityError reports a failed action
	SeverityError Severity = "error"

	// SeverityWarning reports an action that could not start
	SeverityWarning Severity = "warning"

	// SeverityInfo is the default severity
	SeverityInfo Severity = "info"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// DefaultNotificationDuration is how long a notification stays queued unless told otherwise
const DefaultNotificationDuration = 5 * time.Second

// ================================================================================
// Endpoint Keys (API Error Registry)
// ================================================================================

const (
	ErrorKeyJWT                      = "jwt"
	ErrorKeyWebAuthnDevices          = "webauthn-devices"
	ErrorKeyWebAuthnRegisterBegin    = "webauthn-register-begin"
	ErrorKeyWebAuthnRegisterComplete = "webauthn-register-complete"
	ErrorKeyWebAuthnAuthBegin        = "webauthn-auth-begin"
	ErrorKeyWebAuthnAuthComplete     = "webauthn-auth-complete"
	ErrorKeyWebAuthnDeleteDevice     = "webauthn-delete-device"
	ErrorKeyUserProfile              = "user-profile"
	ErrorKeyUserUpdateProfile        = "user-update-profile"
	ErrorKeyAssetBalances            = "asset-balances"
	ErrorKeyAssetTransfer            = "asset-transfer"
	ErrorKeyAssetHistory             = "asset-history"
)

// ================================================================================
// Backend API Constants
// ================================================================================

const (
	// DefaultAPIBaseURL is the backend origin used when none is configured
	DefaultAPIBaseURL = "http://localhost:8000"

	// DefaultAPIBasePath is prefixed to every backend path
	DefaultAPIBasePath = "/api/v1"

	// DefaultAPITimeout bounds a single backend call
	DefaultAPITimeout = 30 * time.Second

	// DefaultSignInURL is where a 401 sends the user
	DefaultSignInURL = "/sign-in"

	// HeaderRequestID carries the per-request correlation id
	HeaderRequestID = "X-Request-ID"

	// HeaderIdempotencyKey lets a caller resubmit a transfer without issuing it twice
	HeaderIdempotencyKey = "Idempotency-Key"

	// BearerPrefix prefixes the Authorization header value
	BearerPrefix = "Bearer "

	// NullToken is the literal an unset token stringifies to in browser clients
	NullToken = "null"
)

// ================================================================================
// User-Facing Messages
// ================================================================================

const (
	MsgNoAuthToken             = "No authentication token available"
	MsgNoAuthTokenWarning      = "No authentication token available. This is a development limitation."
	MsgMissingRegistration     = "Missing required data for registration"
	MsgMissingValidationUser   = "Missing user data for validation"
	MsgMissingDeviceID         = "Missing device id"
	MsgMissingUserOrToken      = "Missing user data or JWT token"
	MsgWebAuthnUnsupported     = "WebAuthn is not supported by this platform"
	MsgRegistrationCancelled   = "Registration was cancelled or not allowed"
	MsgValidationCancelled     = "Validation was cancelled or not allowed"
	MsgRegistrationFailed      = "Failed to register security key"
	MsgValidationFailed        = "Failed to validate security key"
	MsgDeleteFailed            = "Failed to delete security key"
	MsgRegistrationSucceeded   = "Security key registered successfully!"
	MsgValidationSucceeded     = "Security key validated successfully!"
	MsgDeleteSucceeded         = "Security key deleted successfully"
	MsgPlaceholderDevices      = "Using placeholder data for WebAuthn devices (development mode)"
	MsgDevicesLoadFailed       = "Failed to load security keys"
	MsgBalancesLoadFailed      = "Failed to load balances"
	MsgHistoryLoadFailed       = "Failed to load transfer history"
	MsgTransferSucceeded       = "Asset transfer completed successfully"
	MsgTransferFailed          = "Failed to transfer assets"
	MsgProfileLoadFailed       = "Failed to load user profile"
	MsgProfileUpdated          = "Profile updated successfully"
	MsgProfileUpdateFailed     = "Failed to update profile"
	MsgTokenRetrievalFailedFmt = "Token retrieval failed: %s"
)

// ================================================================================
// Environment Constants
// ================================================================================

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode represents a machine-readable error category
type ErrorCode string

const (
	// ErrCodePreconditionFailed indicates a missing user, token or required field
	ErrCodePreconditionFailed ErrorCode = "precondition_failed"

	// ErrCodeInvalidRequest indicates a malformed request payload
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeUnauthorized indicates the backend rejected the bearer token
	ErrCodeUnauthorized ErrorCode = "unauthorized"

	// ErrCodeBackend indicates a non-2xx backend response
	ErrCodeBackend ErrorCode = "backend_error"

	// ErrCodeTransport indicates the backend could not be reached
	ErrCodeTransport ErrorCode = "transport_error"

	// ErrCodeCeremonyCancelled indicates the user dismissed the authenticator prompt
	ErrCodeCeremonyCancelled ErrorCode = "ceremony_cancelled"

	// ErrCodeCeremonyUnsupported indicates no usable authenticator is present
	ErrCodeCeremonyUnsupported ErrorCode = "ceremony_unsupported"

	// ErrCodeCeremonyFailed indicates any other authenticator failure
	ErrCodeCeremonyFailed ErrorCode = "ceremony_failed"

	// ErrCodeNotFound indicates a missing resource
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeInternal indicates an unexpected condition
	ErrCodeInternal ErrorCode = "internal_error"

	// ErrCodeDuplicateRequest indicates an idempotency key that was already used
	ErrCodeDuplicateRequest ErrorCode = "duplicate_request"
)

// ================================================================================
// Logging Constants
// ================================================================================

// Platform authenticators selectable by webauthn.authenticator
const (
	AuthenticatorSoft = "soft"
	AuthenticatorNone = "none"
)

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyUserID is the key for the signed-in user ID in context
	ContextKeyUserID ContextKey = "user_id"
)

// ================================================================================
// Audit Event Constants
// ================================================================================

// AuditEventType represents a user action worth an audit trail entry
type AuditEventType string

const (
	AuditEventSessionChanged   AuditEventType = "session_changed"
	AuditEventDeviceRegistered AuditEventType = "device_registered"
	AuditEventDeviceValidated  AuditEventType = "device_validated"
	AuditEventDeviceDeleted    AuditEventType = "device_deleted"
	AuditEventTransferIssued   AuditEventType = "transfer_issued"
	AuditEventProfileUpdated   AuditEventType = "profile_updated"
)

// ================================================================================
// Console Server Constants
// ================================================================================

const (
	DefaultServerHost           = "127.0.0.1"
	DefaultServerPort           = 8088
	DefaultServerReadTimeout    = 15 * time.Second
	DefaultServerRequestTimeout = 60 * time.Second
	DefaultShutdownTimeout      = 30 * time.Second
	DefaultIdempotencyTTL       = 10 * time.Minute
)

//Personal.AI order the ending
