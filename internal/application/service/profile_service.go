package service

import (
	"context"

	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
	"github.com/turtacn/uats/pkg/utils"
)

// ProfileService defines the user-profile operations.
type ProfileService interface {
	// Profile loads the backend profile. Without a user and token it returns nil, nil.
	Profile(ctx context.Context) (*models.Profile, error)

	// UpdateProfile saves the changed fields and returns the stored profile.
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error)
}

type profileServiceImpl struct {
	deps  Dependencies
	api   domainservice.ProfileAPI
	audit *logger.AuditLogger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(deps Dependencies, api domainservice.ProfileAPI) ProfileService {
	deps = deps.withDefaults()
	return &profileServiceImpl{
		deps:  deps,
		api:   api,
		audit: logger.NewAuditLogger(deps.Logger),
	}
}

func (s *profileServiceImpl) Profile(ctx context.Context) (*models.Profile, error) {
	st := s.deps.Store.State()
	if st.User == nil || !st.HasToken() {
		return nil, nil
	}

	profile, err := trackCall(ctx, s.deps, constants.ErrorKeyUserProfile, func(ctx context.Context) (*models.Profile, error) {
		return s.api.Profile(ctx, st.JWTToken, st.User.ID)
	})
	if err != nil {
		s.deps.Notifier.Error(constants.MsgProfileLoadFailed)
		return nil, err
	}
	return profile, nil
}

func (s *profileServiceImpl) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	st := s.deps.Store.State()
	if st.User == nil || !st.HasToken() {
		s.deps.Notifier.Warn(constants.MsgMissingUserOrToken)
		return nil, errors.ErrPrecondition(constants.MsgMissingUserOrToken)
	}
	if update.IsEmpty() {
		err := errors.ErrInvalidRequest("Nothing to update")
		s.deps.Notifier.Warn(err.Error())
		return nil, err
	}
	if verr := utils.ValidateStruct(update); verr != nil {
		s.deps.Notifier.Warn(verr.Error())
		return nil, verr
	}

	profile, err := trackCall(ctx, s.deps, constants.ErrorKeyUserUpdateProfile, func(ctx context.Context) (*models.Profile, error) {
		return s.api.UpdateProfile(ctx, st.JWTToken, st.User.ID, update)
	})
	if err != nil {
		s.deps.Notifier.Error(messageOr(err, constants.MsgProfileUpdateFailed))
		return nil, err
	}

	s.deps.Notifier.Success(constants.MsgProfileUpdated)
	s.audit.LogProfileUpdated(ctx, st.User.ID)
	return profile, nil
}
