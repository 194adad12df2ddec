package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/constants"
)

// Mock implementations for dependencies
type MockWebAuthnAPI struct {
	mock.Mock
}

func (m *MockWebAuthnAPI) ListDevices(ctx context.Context, token, userID string) ([]models.DeviceRecord, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeviceRecord), args.Error(1)
}

func (m *MockWebAuthnAPI) BeginRegistration(ctx context.Context, token string, req models.RegistrationBeginRequest) (*models.CredentialCreationOptions, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialCreationOptions), args.Error(1)
}

func (m *MockWebAuthnAPI) CompleteRegistration(ctx context.Context, token string, req models.RegistrationCompleteRequest) (*models.Confirmation, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Confirmation), args.Error(1)
}

func (m *MockWebAuthnAPI) BeginAuthentication(ctx context.Context, token string, req models.AuthenticationBeginRequest) (*models.CredentialRequestOptions, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialRequestOptions), args.Error(1)
}

func (m *MockWebAuthnAPI) CompleteAuthentication(ctx context.Context, token string, req models.AuthenticationCompleteRequest) (*models.Confirmation, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Confirmation), args.Error(1)
}

func (m *MockWebAuthnAPI) DeleteDevice(ctx context.Context, token, deviceID string) (*models.Confirmation, error) {
	args := m.Called(ctx, token, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Confirmation), args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Create(ctx context.Context, opts *models.CredentialCreationOptions) (*models.PublicKeyCredential, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicKeyCredential), args.Error(1)
}

func (m *MockAuthenticator) Get(ctx context.Context, opts *models.CredentialRequestOptions) (*models.AssertionCredential, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssertionCredential), args.Error(1)
}

type MockAssetAPI struct {
	mock.Mock
}

func (m *MockAssetAPI) Balances(ctx context.Context, token, userID string) ([]models.Balance, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Balance), args.Error(1)
}

func (m *MockAssetAPI) Transfer(ctx context.Context, token string, req models.TransferRequest) (*models.TransferReceipt, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferReceipt), args.Error(1)
}

func (m *MockAssetAPI) History(ctx context.Context, token, userID string) ([]models.TransferRecord, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransferRecord), args.Error(1)
}

type MockProfileAPI struct {
	mock.Mock
}

func (m *MockProfileAPI) Profile(ctx context.Context, token, userID string) (*models.Profile, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileAPI) UpdateProfile(ctx context.Context, token, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, token, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// gatedSession hands out tokens only when the test releases them.
type gatedSession struct {
	id      string
	release chan struct{}
	token   string
	err     error

	mu    sync.Mutex
	calls int
}

func newGatedSession(id, token string, err error) *gatedSession {
	return &gatedSession{id: id, release: make(chan struct{}), token: token, err: err}
}

func (s *gatedSession) ID() string { return s.id }

func (s *gatedSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	<-s.release
	return s.token, s.err
}

func (s *gatedSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// instantSession returns immediately.
type instantSession struct {
	token string
	err   error
}

func (s instantSession) ID() string { return "sess-instant" }

func (s instantSession) Token(ctx context.Context) (string, error) { return s.token, s.err }

// newTestDeps builds Dependencies over a fresh store with a long default notification duration.
func newTestDeps(t *testing.T) (Dependencies, *state.Store) {
	t.Helper()
	store := state.NewStore()
	notifier := NewNotificationService(store, NotificationOptions{DefaultDuration: time.Minute}, nil, nil)
	t.Cleanup(notifier.Close)
	return Dependencies{
		Store:    store,
		Notifier: notifier,
		Errors:   NewErrorRegistry(store),
	}, store
}

// signIn puts a user and optionally a token into the store.
func signIn(store *state.Store, token string) *models.User {
	user := &models.User{ID: "user_2abc", Email: "ada@example.com", FullName: "Ada Lovelace"}
	store.Dispatch(state.SetUser(user))
	store.Dispatch(state.SetUserLoaded(true))
	if token != "" {
		store.Dispatch(state.SetToken(token))
	}
	return user
}

func notificationsBySeverity(store *state.Store, severity constants.Severity) []models.Notification {
	var out []models.Notification
	for _, n := range store.State().Notifications {
		if n.Severity == severity {
			out = append(out, n)
		}
	}
	return out
}
