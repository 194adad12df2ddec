// Package state holds the console's single source of truth: a closed set of actions,
// a pure transition function over models.AppState, and the mutex-guarded store that owns the current value.
package state

import (
	"time"

	"github.com/turtacn/uats/internal/domain/models"
)

// ActionType tags an Action. The set is closed; unknown types are ignored by Reduce.
type ActionType string

const (
	ActionSetUser            ActionType = "set-user"
	ActionSetUserLoaded      ActionType = "set-user-loaded"
	ActionSetToken           ActionType = "set-token"
	ActionSetTokenLoading    ActionType = "set-token-loading"
	ActionSetDevices         ActionType = "set-devices"
	ActionSetDevicesLoading  ActionType = "set-devices-loading"
	ActionSetError           ActionType = "set-error"
	ActionClearError         ActionType = "clear-error"
	ActionAddNotification    ActionType = "add-notification"
	ActionRemoveNotification ActionType = "remove-notification"
	ActionReset              ActionType = "reset"
)

// Action is a tagged state mutation.
type Action struct {
	Type    ActionType
	Payload interface{}

	// At is the dispatch time. The store stamps it when zero.
	At time.Time
}

// ErrorPayload is the payload of ActionSetError.
type ErrorPayload struct {
	Key     string
	Message string
}

// SetUser replaces the current user; nil signs the user out.
func SetUser(user *models.User) Action {
	return Action{Type: ActionSetUser, Payload: user.Clone()}
}

// SetUserLoaded records that the identity provider has resolved.
func SetUserLoaded(loaded bool) Action {
	return Action{Type: ActionSetUserLoaded, Payload: loaded}
}

// SetToken stores a bearer token; an empty token means absent. It also ends any refresh.
func SetToken(token string) Action {
	return Action{Type: ActionSetToken, Payload: token}
}

// SetTokenLoading marks a token refresh as in flight.
func SetTokenLoading(loading bool) Action {
	return Action{Type: ActionSetTokenLoading, Payload: loading}
}

// SetDevices replaces the device list and ends any device load.
func SetDevices(devices []models.DeviceRecord) Action {
	return Action{Type: ActionSetDevices, Payload: models.CloneDevices(devices)}
}

// SetDevicesLoading marks a device load as in flight.
func SetDevicesLoading(loading bool) Action {
	return Action{Type: ActionSetDevicesLoading, Payload: loading}
}

// SetError records the last error for an endpoint key.
func SetError(key, message string) Action {
	return Action{Type: ActionSetError, Payload: ErrorPayload{Key: key, Message: message}}
}

// ClearError drops the error recorded for an endpoint key.
func ClearError(key string) Action {
	return Action{Type: ActionClearError, Payload: key}
}

// AddNotification appends a notification to the queue.
func AddNotification(n models.Notification) Action {
	return Action{Type: ActionAddNotification, Payload: n}
}

// RemoveNotification drops the notification with the given id.
func RemoveNotification(id int64) Action {
	return Action{Type: ActionRemoveNotification, Payload: id}
}

// Reset restores the initial state.
func Reset() Action {
	return Action{Type: ActionReset}
}
