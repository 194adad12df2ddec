package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/constants"
	uatserrors "github.com/turtacn/uats/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestProfileService_Profile(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		deps, _ := newTestDeps(t)
		profile, err := NewProfileService(deps, new(MockProfileAPI)).Profile(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("failure is notified and returned", func(t *testing.T) {
		deps, store := newTestDeps(t)
		signIn(store, "tok")
		api := new(MockProfileAPI)
		api.On("Profile", mock.Anything, "tok", "user_2abc").Return(nil, uatserrors.ErrBackend(404, "User not found")).Once()

		profile, err := NewProfileService(deps, api).Profile(context.Background())

		require.Error(t, err)
		assert.Nil(t, profile)
		assert.Equal(t, "User not found", store.State().APIErrors[constants.ErrorKeyUserProfile])
		errs := notificationsBySeverity(store, constants.SeverityError)
		require.Len(t, errs, 1)
		assert.Equal(t, constants.MsgProfileLoadFailed, errs[0].Message)
	})

	t.Run("success", func(t *testing.T) {
		deps, store := newTestDeps(t)
		signIn(store, "tok")
		want := &models.Profile{ID: float64(7), Email: "ada@example.com", FirstName: "Ada", IsActive: true}
		api := new(MockProfileAPI)
		api.On("Profile", mock.Anything, "tok", "user_2abc").Return(want, nil).Once()

		profile, err := NewProfileService(deps, api).Profile(context.Background())

		require.NoError(t, err)
		assert.Equal(t, want, profile)
		assert.Empty(t, store.State().Notifications)
	})
}

func TestProfileService_UpdateProfile(t *testing.T) {
	t.Run("empty update", func(t *testing.T) {
		deps, store := newTestDeps(t)
		signIn(store, "tok")
		api := new(MockProfileAPI)

		_, err := NewProfileService(deps, api).UpdateProfile(context.Background(), models.ProfileUpdate{})

		assert.True(t, uatserrors.HasCode(err, constants.ErrCodeInvalidRequest))
		assert.Len(t, notificationsBySeverity(store, constants.SeverityWarning), 1)
		api.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid email", func(t *testing.T) {
		deps, store := newTestDeps(t)
		signIn(store, "tok")
		api := new(MockProfileAPI)

		_, err := NewProfileService(deps, api).UpdateProfile(context.Background(), models.ProfileUpdate{Email: strPtr("not-an-email")})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "email must be a valid email address")
		api.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		deps, store := newTestDeps(t)
		signIn(store, "tok")
		update := models.ProfileUpdate{FirstName: strPtr("Augusta")}
		api := new(MockProfileAPI)
		api.On("UpdateProfile", mock.Anything, "tok", "user_2abc", update).
			Return(&models.Profile{FirstName: "Augusta"}, nil).Once()

		profile, err := NewProfileService(deps, api).UpdateProfile(context.Background(), update)

		require.NoError(t, err)
		assert.Equal(t, "Augusta", profile.FirstName)
		successes := notificationsBySeverity(store, constants.SeveritySuccess)
		require.Len(t, successes, 1)
		assert.Equal(t, constants.MsgProfileUpdated, successes[0].Message)
	})

	t.Run("without session", func(t *testing.T) {
		deps, store := newTestDeps(t)
		_, err := NewProfileService(deps, new(MockProfileAPI)).UpdateProfile(context.Background(), models.ProfileUpdate{FirstName: strPtr("x")})
		assert.True(t, uatserrors.IsPrecondition(err))
		assert.Len(t, notificationsBySeverity(store, constants.SeverityWarning), 1)
	})
}
