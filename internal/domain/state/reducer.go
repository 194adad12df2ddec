package state

import (
	"github.com/turtacn/uats/internal/domain/models"
)

// Reduce applies action to s and returns the next state.
// It reads no clock and performs no I/O; the input state is never modified.
// Unknown action types and payloads of the wrong type return s unchanged.
func Reduce(s models.AppState, action Action) models.AppState {
	switch action.Type {
	case ActionSetUser:
		user, ok := action.Payload.(*models.User)
		if !ok && action.Payload != nil {
			return s
		}
		next := s
		next.User = user.Clone()
		next.LastUpdated = action.At
		if user == nil {
			next.JWTToken = ""
			next.TokenLoading = false
		}
		return next

	case ActionSetUserLoaded:
		loaded, ok := action.Payload.(bool)
		if !ok {
			return s
		}
		next := s
		next.IsUserLoaded = s.IsUserLoaded || loaded
		return next

	case ActionSetToken:
		token, ok := action.Payload.(string)
		if !ok && action.Payload != nil {
			return s
		}
		next := s
		next.JWTToken = token
		next.TokenLoading = false
		next.LastUpdated = action.At
		return next

	case ActionSetTokenLoading:
		loading, ok := action.Payload.(bool)
		if !ok {
			return s
		}
		next := s
		next.TokenLoading = loading
		if loading {
			next.JWTToken = ""
		}
		return next

	case ActionSetDevices:
		devices, ok := action.Payload.([]models.DeviceRecord)
		if !ok && action.Payload != nil {
			return s
		}
		next := s
		next.WebAuthnDevices = models.CloneDevices(devices)
		if next.WebAuthnDevices == nil {
			next.WebAuthnDevices = []models.DeviceRecord{}
		}
		next.HasWebAuthnDevice = len(next.WebAuthnDevices) > 0
		next.WebAuthnLoading = false
		next.LastUpdated = action.At
		return next

	case ActionSetDevicesLoading:
		loading, ok := action.Payload.(bool)
		if !ok {
			return s
		}
		next := s
		next.WebAuthnLoading = loading
		return next

	case ActionSetError:
		payload, ok := action.Payload.(ErrorPayload)
		if !ok {
			return s
		}
		next := s
		next.APIErrors = copyErrors(s.APIErrors, 1)
		next.APIErrors[payload.Key] = payload.Message
		return next

	case ActionClearError:
		key, ok := action.Payload.(string)
		if !ok {
			return s
		}
		if _, present := s.APIErrors[key]; !present {
			return s
		}
		next := s
		next.APIErrors = copyErrors(s.APIErrors, 0)
		delete(next.APIErrors, key)
		return next

	case ActionAddNotification:
		n, ok := action.Payload.(models.Notification)
		if !ok {
			return s
		}
		for _, existing := range s.Notifications {
			if existing.ID == n.ID {
				return s
			}
		}
		n.Severity = models.NormalizeSeverity(n.Severity)
		next := s
		next.Notifications = make([]models.Notification, len(s.Notifications), len(s.Notifications)+1)
		copy(next.Notifications, s.Notifications)
		next.Notifications = append(next.Notifications, n)
		return next

	case ActionRemoveNotification:
		id, ok := action.Payload.(int64)
		if !ok {
			return s
		}
		idx := -1
		for i, existing := range s.Notifications {
			if existing.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s
		}
		next := s
		next.Notifications = make([]models.Notification, 0, len(s.Notifications)-1)
		next.Notifications = append(next.Notifications, s.Notifications[:idx]...)
		next.Notifications = append(next.Notifications, s.Notifications[idx+1:]...)
		return next

	case ActionReset:
		return models.InitialState()

	default:
		return s
	}
}

func copyErrors(src map[string]string, extra int) map[string]string {
	out := make(map[string]string, len(src)+extra)
	for k, v := range src {
		out[k] = v
	}
	return out
}
