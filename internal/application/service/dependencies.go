package service

import (
	"time"

	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/logger"
)

// Dependencies are the collaborators shared by every orchestration service.
// Store is required; the rest fall back to no-op or real-time defaults.
type Dependencies struct {
	Store    state.StateStore
	Notifier NotificationService
	Errors   ErrorRegistry
	Metrics  domainservice.Metrics
	Logger   logger.Logger
	Clock    func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Store == nil {
		panic("service: Dependencies.Store is required")
	}
	if d.Metrics == nil {
		d.Metrics = domainservice.NoopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoopLogger()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Errors == nil {
		d.Errors = NewErrorRegistry(d.Store)
	}
	if d.Notifier == nil {
		d.Notifier = NewNotificationService(d.Store, NotificationOptions{}, d.Metrics, d.Logger)
	}
	return d
}
