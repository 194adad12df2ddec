package models

import "time"

// AppState is the process-wide console state. The store owns it; everyone else reads copies.
type AppState struct {
	User         *User `json:"user"`
	IsUserLoaded bool  `json:"isUserLoaded"`

	// JWTToken is empty when no bearer token is held.
	JWTToken     string `json:"-"`
	TokenLoading bool   `json:"tokenLoading"`

	WebAuthnDevices   []DeviceRecord `json:"webAuthnDevices"`
	HasWebAuthnDevice bool           `json:"hasWebAuthnDevice"`
	WebAuthnLoading   bool           `json:"webAuthnLoading"`

	APIErrors     map[string]string `json:"apiErrors"`
	Notifications []Notification    `json:"notifications"`

	// LastUpdated is zero until the first user, token or device-list change.
	LastUpdated time.Time `json:"lastUpdated,omitzero"`
}

// InitialState returns the state a fresh session starts from.
func InitialState() AppState {
	return AppState{
		WebAuthnDevices: []DeviceRecord{},
		APIErrors:       map[string]string{},
		Notifications:   []Notification{},
	}
}

// HasToken reports whether a bearer token is held.
func (s AppState) HasToken() bool {
	return s.JWTToken != ""
}

// Clone returns a deep copy that shares no mutable memory with s.
func (s AppState) Clone() AppState {
	out := s
	out.User = s.User.Clone()
	out.WebAuthnDevices = CloneDevices(s.WebAuthnDevices)
	if out.WebAuthnDevices == nil {
		out.WebAuthnDevices = []DeviceRecord{}
	}
	out.APIErrors = make(map[string]string, len(s.APIErrors))
	for k, v := range s.APIErrors {
		out.APIErrors[k] = v
	}
	out.Notifications = make([]Notification, len(s.Notifications))
	copy(out.Notifications, s.Notifications)
	return out
}
