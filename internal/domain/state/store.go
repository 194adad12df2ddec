package state

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/logger"
)

// StateStore is the single mutation channel (Dispatch) and read channel (State) of the console.
type StateStore interface {
	// Dispatch applies an action synchronously. It never blocks on I/O and never fails.
	Dispatch(action Action)

	// State returns a snapshot that callers may freely modify.
	State() models.AppState

	// Subscribe registers a listener for post-dispatch snapshots and returns its unsubscribe function.
	Subscribe(listener Listener) (unsubscribe func())
}

// Listener receives the state produced by a dispatch.
type Listener func(snapshot models.AppState, action Action)

// Store is the mutex-guarded owner of the current AppState.
type Store struct {
	mu        sync.Mutex
	state     models.AppState
	clock     func() time.Time
	listeners map[uint64]Listener
	nextID    uint64
	log       logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp actions.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger sets the logger used for transition tracing.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.log = log.WithComponent("state-store") }
}

// NewStore creates a Store holding the initial state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:     models.InitialState(),
		clock:     time.Now,
		listeners: make(map[uint64]Listener),
		log:       logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch stamps the action, applies Reduce under the lock and then notifies listeners outside it.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	if action.At.IsZero() {
		action.At = s.clock().UTC()
	}
	s.state = Reduce(s.state, action)

	var (
		snapshot  models.AppState
		listeners []Listener
	)
	if len(s.listeners) > 0 {
		snapshot = s.state.Clone()
		listeners = make([]Listener, 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	s.log.Debug(context.Background(), "Action dispatched", logger.String("action", string(action.Type)))

	for _, l := range listeners {
		l(snapshot.Clone(), action)
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers listener. Calling the returned function more than once is a no-op.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Token returns the current bearer token without copying the whole state.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.JWTToken
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User.Clone()
}
