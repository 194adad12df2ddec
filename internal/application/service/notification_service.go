package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/logger"
)

// NotificationService creates user-facing notifications and expires them.
type NotificationService interface {
	// Add queues a message and returns its id. A duration <= 0 keeps it until removed.
	Add(message string, severity constants.Severity, duration time.Duration) int64

	// Info, Success, Warn and Error queue a message with the default duration.
	Info(message string) int64
	Success(message string) int64
	Warn(message string) int64
	Error(message string) int64

	// Remove dismisses a notification. Unknown or already removed ids are ignored.
	Remove(id int64)

	// ClearAll dismisses every queued notification.
	ClearAll()

	// SetDefaultDuration changes the duration used by Info, Success, Warn and Error.
	SetDefaultDuration(d time.Duration)

	// Close stops every pending expiry. Later Add calls are dropped.
	Close()
}

// NotificationOptions configures the notification service.
type NotificationOptions struct {
	DefaultDuration time.Duration
	Clock           func() time.Time
}

type notificationServiceImpl struct {
	store   state.StateStore
	metrics domainservice.Metrics
	log     logger.Logger
	clock   func() time.Time

	defaultDuration atomic.Int64
	nextID          atomic.Int64

	mu     sync.Mutex
	timers map[int64]*time.Timer
	closed bool
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store state.StateStore, opts NotificationOptions, metrics domainservice.Metrics, log logger.Logger) NotificationService {
	if opts.DefaultDuration == 0 {
		opts.DefaultDuration = constants.DefaultNotificationDuration
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if metrics == nil {
		metrics = domainservice.NoopMetrics{}
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}

	s := &notificationServiceImpl{
		store:   store,
		metrics: metrics,
		log:     log.WithComponent("notifications"),
		clock:   opts.Clock,
		timers:  make(map[int64]*time.Timer),
	}
	s.defaultDuration.Store(int64(opts.DefaultDuration))
	return s
}

func (s *notificationServiceImpl) Add(message string, severity constants.Severity, duration time.Duration) int64 {
	severity = models.NormalizeSeverity(severity)

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		s.log.Debug(context.Background(), "Notification dropped after close", logger.String("message", message))
		return 0
	}

	id := s.nextID.Add(1)
	s.store.Dispatch(state.AddNotification(models.Notification{
		ID:                id,
		Message:           message,
		Severity:          severity,
		Timestamp:         s.clock().UTC(),
		AutoExpireAfterMs: duration.Milliseconds(),
	}))

	// the timer starts only after the add has landed, so expiry can never precede it
	if duration > 0 {
		s.mu.Lock()
		if !s.closed {
			s.timers[id] = time.AfterFunc(duration, func() { s.expire(id) })
		}
		s.mu.Unlock()
	}

	s.metrics.RecordNotification(string(severity))
	return id
}

func (s *notificationServiceImpl) Info(message string) int64 {
	return s.Add(message, constants.SeverityInfo, s.duration())
}

func (s *notificationServiceImpl) Success(message string) int64 {
	return s.Add(message, constants.SeveritySuccess, s.duration())
}

func (s *notificationServiceImpl) Warn(message string) int64 {
	return s.Add(message, constants.SeverityWarning, s.duration())
}

func (s *notificationServiceImpl) Error(message string) int64 {
	return s.Add(message, constants.SeverityError, s.duration())
}

func (s *notificationServiceImpl) Remove(id int64) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.store.Dispatch(state.RemoveNotification(id))
}

func (s *notificationServiceImpl) ClearAll() {
	for _, n := range s.store.State().Notifications {
		s.Remove(n.ID)
	}
}

func (s *notificationServiceImpl) SetDefaultDuration(d time.Duration) {
	s.defaultDuration.Store(int64(d))
}

func (s *notificationServiceImpl) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *notificationServiceImpl) expire(id int64) {
	s.mu.Lock()
	_, pending := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()
	if pending {
		s.store.Dispatch(state.RemoveNotification(id))
	}
}

func (s *notificationServiceImpl) duration() time.Duration {
	return time.Duration(s.defaultDuration.Load())
}
