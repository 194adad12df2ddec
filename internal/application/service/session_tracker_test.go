package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/pkg/constants"
)

func TestSessionTracker_AbsentUser(t *testing.T) {
	deps, store := newTestDeps(t)
	tracker := NewSessionTracker(deps)

	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: nil, Loaded: true})
	tracker.Wait()

	st := store.State()
	assert.Nil(t, st.User)
	assert.True(t, st.IsUserLoaded)
	assert.Empty(t, st.JWTToken)
	assert.False(t, st.TokenLoading)
}

func TestSessionTracker_RefreshSuccessClearsJWTError(t *testing.T) {
	deps, store := newTestDeps(t)
	deps.Errors.Set(constants.ErrorKeyJWT, "Token retrieval failed: earlier")
	tracker := NewSessionTracker(deps)

	user := &models.User{ID: "user_1"}
	session := newGatedSession("sess_1", "tok-1", nil)
	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: user, Loaded: true, Session: session})

	st := store.State()
	assert.True(t, st.TokenLoading)
	assert.Empty(t, st.JWTToken)

	close(session.release)
	tracker.Wait()

	st = store.State()
	assert.Equal(t, "tok-1", st.JWTToken)
	assert.False(t, st.TokenLoading)
	assert.NotContains(t, st.APIErrors, constants.ErrorKeyJWT)
}

func TestSessionTracker_RefreshFailureRecordsJWTError(t *testing.T) {
	deps, store := newTestDeps(t)
	tracker := NewSessionTracker(deps)

	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{
		User:    &models.User{ID: "user_1"},
		Loaded:  true,
		Session: instantSession{err: errors.New("session expired")},
	})
	tracker.Wait()

	st := store.State()
	assert.Empty(t, st.JWTToken)
	assert.False(t, st.TokenLoading)
	assert.Equal(t, "Token retrieval failed: session expired", st.APIErrors[constants.ErrorKeyJWT])
}

func TestSessionTracker_TokenClearsOnSignOut(t *testing.T) {
	deps, store := newTestDeps(t)
	tracker := NewSessionTracker(deps)

	user := &models.User{ID: "user_1"}
	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: user, Loaded: true, Session: instantSession{token: "tok"}})
	tracker.Wait()
	require.Equal(t, "tok", store.State().JWTToken)

	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: nil, Loaded: true, Session: nil})
	tracker.Wait()

	st := store.State()
	assert.Nil(t, st.User)
	assert.Empty(t, st.JWTToken)
	assert.False(t, st.TokenLoading)
}

func TestSessionTracker_StaleResponseIsDiscarded(t *testing.T) {
	deps, store := newTestDeps(t)
	tracker := NewSessionTracker(deps)
	user := &models.User{ID: "user_1"}

	first := newGatedSession("sess_1", "tok-gen-1", nil)
	second := newGatedSession("sess_2", "tok-gen-2", nil)

	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: user, Loaded: true, Session: first})
	require.Eventually(t, func() bool { return first.Calls() == 1 }, time.Second, time.Millisecond)
	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: user, Loaded: true, Session: second})
	require.Eventually(t, func() bool { return second.Calls() == 1 }, time.Second, time.Millisecond)

	close(second.release)
	require.Eventually(t, func() bool { return store.State().JWTToken == "tok-gen-2" }, time.Second, time.Millisecond)

	close(first.release)
	tracker.Wait()

	assert.Equal(t, "tok-gen-2", store.State().JWTToken)
	assert.False(t, store.State().TokenLoading)
}

func TestSessionTracker_SignOutBeatsInFlightRefresh(t *testing.T) {
	deps, store := newTestDeps(t)
	tracker := NewSessionTracker(deps)

	slow := newGatedSession("sess_1", "tok-late", nil)
	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: &models.User{ID: "user_1"}, Loaded: true, Session: slow})
	tracker.Observe(context.Background(), domainservice.IdentitySnapshot{User: nil, Loaded: true})

	close(slow.release)
	tracker.Wait()

	assert.Empty(t, store.State().JWTToken)
}

type chanProvider struct {
	current domainservice.IdentitySnapshot
	changes chan domainservice.IdentitySnapshot
}

func (p *chanProvider) Current() domainservice.IdentitySnapshot        { return p.current }
func (p *chanProvider) Changes() <-chan domainservice.IdentitySnapshot { return p.changes }

func TestSessionTracker_RunFollowsProvider(t *testing.T) {
	deps, store := newTestDeps(t)
	tracker := NewSessionTracker(deps)

	provider := &chanProvider{
		current: domainservice.IdentitySnapshot{Loaded: false},
		changes: make(chan domainservice.IdentitySnapshot, 1),
	}

	done := make(chan error, 1)
	go func() { done <- tracker.Run(context.Background(), provider) }()

	provider.changes <- domainservice.IdentitySnapshot{User: &models.User{ID: "user_1"}, Loaded: true, Session: instantSession{token: "tok"}}
	close(provider.changes)

	require.NoError(t, <-done)
	tracker.Wait()
	assert.Equal(t, "tok", store.State().JWTToken)
	assert.True(t, store.State().IsUserLoaded)
}
