package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeviceRecord is a registered hardware authenticator. Records are immutable once received; identity is ID.
type DeviceRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsed   *time.Time `json:"lastUsed"`
	DeviceType string     `json:"deviceType,omitempty"`
	SignCount  uint32     `json:"signCount"`
}

// deviceWire accepts both the camelCase record and the snake_case fields the backend serializer emits.
type deviceWire struct {
	ID         json.RawMessage `json:"id"`
	Name       string          `json:"name"`
	CreatedAt  *time.Time      `json:"createdAt"`
	CreatedAtS *time.Time      `json:"created_at"`
	LastUsed   *time.Time      `json:"lastUsed"`
	LastUsedS  *time.Time      `json:"last_used_at"`
	DeviceType string          `json:"deviceType"`
	DeviceTyS  string          `json:"device_type"`
	SignCount  *uint32         `json:"signCount"`
	SignCountS *uint32         `json:"sign_count"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DeviceRecord) UnmarshalJSON(data []byte) error {
	var w deviceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	*d = DeviceRecord{ID: id, Name: w.Name}
	if t := firstTime(w.CreatedAt, w.CreatedAtS); t != nil {
		d.CreatedAt = *t
	}
	d.LastUsed = firstTime(w.LastUsed, w.LastUsedS)
	d.DeviceType = w.DeviceType
	if d.DeviceType == "" {
		d.DeviceType = w.DeviceTyS
	}
	switch {
	case w.SignCount != nil:
		d.SignCount = *w.SignCount
	case w.SignCountS != nil:
		d.SignCount = *w.SignCountS
	}
	return nil
}

// decodeID accepts string and numeric ids.
func decodeID(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	if s[0] == '"' {
		var out string
		err := json.Unmarshal(raw, &out)
		return out, err
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("unsupported id %s", s)
	}
	return s, nil
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil && !v.IsZero() {
			t := *v
			return &t
		}
	}
	return nil
}

// DeviceList is the body of the list-devices response.
type DeviceList struct {
	Devices []DeviceRecord `json:"devices"`
}

// CloneDevices copies a device slice, including the LastUsed pointers.
func CloneDevices(devices []DeviceRecord) []DeviceRecord {
	if devices == nil {
		return nil
	}
	out := make([]DeviceRecord, len(devices))
	for i, d := range devices {
		out[i] = d
		if d.LastUsed != nil {
			t := *d.LastUsed
			out[i].LastUsed = &t
		}
	}
	return out
}

// PlaceholderDevices fabricates the degraded-mode device list shown when the device endpoint is unreachable.
func PlaceholderDevices(now time.Time) []DeviceRecord {
	created := now.Add(-30 * 24 * time.Hour).UTC().Truncate(time.Second)
	used := now.Add(-2 * time.Hour).UTC().Truncate(time.Second)
	return []DeviceRecord{
		{
			ID:         "placeholder-1",
			Name:       "YubiKey 5C",
			CreatedAt:  created,
			LastUsed:   &used,
			DeviceType: "cross-platform",
		},
	}
}
