package dto

import (
	"time"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/constants"
)

// StateResponse is the console state as a UI binds to it. The bearer token itself never leaves the process.
type StateResponse struct {
	User              *models.User          `json:"user"`
	IsUserLoaded      bool                  `json:"isUserLoaded"`
	HasToken          bool                  `json:"hasToken"`
	TokenLoading      bool                  `json:"tokenLoading"`
	WebAuthnDevices   []models.DeviceRecord `json:"webAuthnDevices"`
	HasWebAuthnDevice bool                  `json:"hasWebAuthnDevice"`
	WebAuthnLoading   bool                  `json:"webAuthnLoading"`
	APIErrors         map[string]string     `json:"apiErrors"`
	Notifications     []models.Notification `json:"notifications"`
	LastUpdated       *time.Time            `json:"lastUpdated,omitempty"`
}

// NewStateResponse converts a state snapshot.
func NewStateResponse(s models.AppState) *StateResponse {
	resp := &StateResponse{
		User:              s.User,
		IsUserLoaded:      s.IsUserLoaded,
		HasToken:          s.HasToken(),
		TokenLoading:      s.TokenLoading,
		WebAuthnDevices:   s.WebAuthnDevices,
		HasWebAuthnDevice: s.HasWebAuthnDevice,
		WebAuthnLoading:   s.WebAuthnLoading,
		APIErrors:         s.APIErrors,
		Notifications:     s.Notifications,
	}
	if !s.LastUpdated.IsZero() {
		t := s.LastUpdated
		resp.LastUpdated = &t
	}
	return resp
}

// SessionResponse summarises the signed-in identity.
type SessionResponse struct {
	User         *models.User `json:"user"`
	IsUserLoaded bool         `json:"isUserLoaded"`
	HasToken     bool         `json:"hasToken"`
	TokenLoading bool         `json:"tokenLoading"`
	TokenError   string       `json:"tokenError,omitempty"`
}

// NewSessionResponse extracts the session part of a state snapshot.
func NewSessionResponse(s models.AppState) *SessionResponse {
	return &SessionResponse{
		User:         s.User,
		IsUserLoaded: s.IsUserLoaded,
		HasToken:     s.HasToken(),
		TokenLoading: s.TokenLoading,
		TokenError:   s.APIErrors[constants.ErrorKeyJWT],
	}
}

// SignInRequest carries an identity-provider session token.
type SignInRequest struct {
	Token string `json:"token" validate:"required"`
}

// RegisterDeviceRequest names the security key about to be registered.
type RegisterDeviceRequest struct {
	Name string `json:"name"`
}

// DevicesResponse lists the registered security keys.
type DevicesResponse struct {
	Devices   []models.DeviceRecord `json:"devices"`
	HasDevice bool                  `json:"hasDevice"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
}

// NewDevicesResponse extracts the device part of a state snapshot.
func NewDevicesResponse(s models.AppState) *DevicesResponse {
	return &DevicesResponse{
		Devices:   s.WebAuthnDevices,
		HasDevice: s.HasWebAuthnDevice,
		Loading:   s.WebAuthnLoading,
		Error:     s.APIErrors[constants.ErrorKeyWebAuthnDevices],
	}
}

// NotificationRequest queues a notification. A nil DurationMs uses the default duration; 0 never expires.
type NotificationRequest struct {
	Message    string             `json:"message" validate:"required"`
	Type       constants.Severity `json:"type"`
	DurationMs *int64             `json:"duration,omitempty" validate:"omitempty,min=0"`
}

// NotificationCreated is the id of a queued notification.
type NotificationCreated struct {
	ID int64 `json:"id"`
}

// HealthResponse is the console health report.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

//Personal.AI order the ending
