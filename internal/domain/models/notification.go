package models

import (
	"time"

	"github.com/turtacn/uats/pkg/constants"
)

// Notification is a transient user-facing status message.
type Notification struct {
	ID                int64              `json:"id"`
	Message           string             `json:"message"`
	Severity          constants.Severity `json:"type"`
	Timestamp         time.Time          `json:"timestamp"`
	AutoExpireAfterMs int64              `json:"duration"`
}

// NormalizeSeverity maps unknown severities to info.
func NormalizeSeverity(s constants.Severity) constants.Severity {
	if s.Valid() {
		return s
	}
	return constants.SeverityInfo
}
