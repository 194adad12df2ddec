package service

import (
	"context"
	"strings"
	"sync"

	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
)

// WebAuthnService defines the security-key operations offered to the UI.
type WebAuthnService interface {
	// LoadDevices refreshes the device list of the signed-in user. Failures are recorded, never returned.
	LoadDevices(ctx context.Context)

	// RegisterDevice runs the registration ceremony and stores the new key under displayName.
	RegisterDevice(ctx context.Context, displayName string) error

	// ValidateDevice runs the authentication ceremony against the user's registered keys.
	ValidateDevice(ctx context.Context) error

	// DeleteDevice removes a security key and reloads the list.
	DeleteDevice(ctx context.Context, deviceID string) error
}

// WebAuthnOptions configures the WebAuthn service.
type WebAuthnOptions struct {
	// PlaceholderFallback replaces a failed device load with placeholder data.
	// It is meant for development against an unreachable backend only.
	PlaceholderFallback bool
}

type webAuthnServiceImpl struct {
	deps          Dependencies
	api           domainservice.WebAuthnAPI
	authenticator domainservice.Authenticator
	opts          WebAuthnOptions
	log           logger.Logger
	audit         *logger.AuditLogger

	loadMu  sync.Mutex
	loadGen uint64
}

// NewWebAuthnService creates a new WebAuthnService. A nil authenticator makes every ceremony unsupported.
func NewWebAuthnService(deps Dependencies, api domainservice.WebAuthnAPI, authenticator domainservice.Authenticator, opts WebAuthnOptions) WebAuthnService {
	deps = deps.withDefaults()
	return &webAuthnServiceImpl{
		deps:          deps,
		api:           api,
		authenticator: authenticator,
		opts:          opts,
		log:           deps.Logger.WithComponent("webauthn"),
		audit:         logger.NewAuditLogger(deps.Logger),
	}
}

// LoadDevices is a no-op without a signed-in user. A newer load always wins over an older one.
func (s *webAuthnServiceImpl) LoadDevices(ctx context.Context) {
	st := s.deps.Store.State()
	if st.User == nil {
		return
	}

	s.loadMu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.loadMu.Unlock()

	s.deps.Store.Dispatch(state.SetDevicesLoading(true))

	devices, err := trackCall(ctx, s.deps, constants.ErrorKeyWebAuthnDevices, func(ctx context.Context) ([]models.DeviceRecord, error) {
		return s.api.ListDevices(ctx, st.JWTToken, st.User.ID)
	})

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if gen != s.loadGen {
		s.log.Debug(ctx, "Discarding superseded device load", logger.Int64("generation", int64(gen)))
		return
	}

	if err == nil {
		s.deps.Store.Dispatch(state.SetDevices(devices))
		s.deps.Metrics.SetDeviceCount(len(devices))
		return
	}

	if s.opts.PlaceholderFallback {
		s.log.Warn(ctx, "Device list unavailable, using placeholder data", logger.Err(err))
		placeholders := models.PlaceholderDevices(s.deps.Clock())
		s.deps.Store.Dispatch(state.SetDevices(placeholders))
		s.deps.Metrics.RecordDeviceFallback()
		s.deps.Metrics.SetDeviceCount(len(placeholders))
		s.deps.Notifier.Info(constants.MsgPlaceholderDevices)
		return
	}

	s.deps.Store.Dispatch(state.SetDevicesLoading(false))
	s.deps.Notifier.Error(constants.MsgDevicesLoadFailed)
}

func (s *webAuthnServiceImpl) RegisterDevice(ctx context.Context, displayName string) error {
	st := s.deps.Store.State()
	keyName := strings.TrimSpace(displayName)
	if st.User == nil || keyName == "" {
		return s.precondition(errors.ErrPrecondition(constants.MsgMissingRegistration), constants.MsgMissingRegistration)
	}
	if !st.HasToken() {
		return s.precondition(errors.ErrNoAuthToken(), constants.MsgNoAuthTokenWarning)
	}
	if s.authenticator == nil {
		return s.failCeremony(ctx, ceremonyRegister, &domainservice.CeremonyError{
			Kind: domainservice.CeremonyUnsupported,
			Op:   "create",
			Err:  domainservice.ErrCeremonyNotSupported,
		})
	}

	user := st.User
	token := st.JWTToken

	opts, err := trackCall(ctx, s.deps, constants.ErrorKeyWebAuthnRegisterBegin, func(ctx context.Context) (*models.CredentialCreationOptions, error) {
		return s.api.BeginRegistration(ctx, token, models.RegistrationBeginRequest{
			UserID:      user.ID,
			Username:    user.Username(),
			DisplayName: user.DisplayName(),
		})
	})
	if err != nil {
		return s.failCeremony(ctx, ceremonyRegister, err)
	}

	credential, err := s.authenticator.Create(ctx, opts)
	if err != nil {
		return s.failCeremony(ctx, ceremonyRegister, domainservice.ClassifyCeremonyError("create", err))
	}

	_, err = trackCall(ctx, s.deps, constants.ErrorKeyWebAuthnRegisterComplete, func(ctx context.Context) (*models.Confirmation, error) {
		return s.api.CompleteRegistration(ctx, token, models.RegistrationCompleteRequest{
			Credential: *credential,
			KeyName:    keyName,
			Name:       keyName,
			Challenge:  opts.ServerChallenge,
		})
	})
	if err != nil {
		return s.failCeremony(ctx, ceremonyRegister, err)
	}

	s.LoadDevices(ctx)

	s.deps.Notifier.Success(constants.MsgRegistrationSucceeded)
	s.deps.Metrics.RecordCeremony(ceremonyRegister, "success")
	s.audit.LogDeviceRegistered(ctx, user.ID, keyName)
	return nil
}

func (s *webAuthnServiceImpl) ValidateDevice(ctx context.Context) error {
	st := s.deps.Store.State()
	if st.User == nil {
		return s.precondition(errors.ErrPrecondition(constants.MsgMissingValidationUser), constants.MsgMissingValidationUser)
	}
	if !st.HasToken() {
		return s.precondition(errors.ErrNoAuthToken(), constants.MsgNoAuthTokenWarning)
	}
	if s.authenticator == nil {
		return s.failCeremony(ctx, ceremonyValidate, &domainservice.CeremonyError{
			Kind: domainservice.CeremonyUnsupported,
			Op:   "get",
			Err:  domainservice.ErrCeremonyNotSupported,
		})
	}

	user := st.User
	token := st.JWTToken

	opts, err := trackCall(ctx, s.deps, constants.ErrorKeyWebAuthnAuthBegin, func(ctx context.Context) (*models.CredentialRequestOptions, error) {
		return s.api.BeginAuthentication(ctx, token, models.AuthenticationBeginRequest{UserID: user.ID})
	})
	if err != nil {
		return s.failCeremony(ctx, ceremonyValidate, err)
	}

	assertion, err := s.authenticator.Get(ctx, opts)
	if err != nil {
		return s.failCeremony(ctx, ceremonyValidate, domainservice.ClassifyCeremonyError("get", err))
	}

	_, err = trackCall(ctx, s.deps, constants.ErrorKeyWebAuthnAuthComplete, func(ctx context.Context) (*models.Confirmation, error) {
		return s.api.CompleteAuthentication(ctx, token, models.AuthenticationCompleteRequest{
			Assertion:  *assertion,
			Credential: assertion,
			Challenge:  opts.ServerChallenge,
		})
	})
	if err != nil {
		return s.failCeremony(ctx, ceremonyValidate, err)
	}

	s.deps.Notifier.Success(constants.MsgValidationSucceeded)
	s.deps.Metrics.RecordCeremony(ceremonyValidate, "success")
	s.audit.LogDeviceValidated(ctx, user.ID)
	return nil
}

func (s *webAuthnServiceImpl) DeleteDevice(ctx context.Context, deviceID string) error {
	st := s.deps.Store.State()
	if !st.HasToken() {
		return s.precondition(errors.ErrNoAuthToken(), constants.MsgNoAuthTokenWarning)
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return s.precondition(errors.ErrMissingParameter("deviceId"), constants.MsgMissingDeviceID)
	}

	_, err := trackCall(ctx, s.deps, constants.ErrorKeyWebAuthnDeleteDevice, func(ctx context.Context) (*models.Confirmation, error) {
		return s.api.DeleteDevice(ctx, st.JWTToken, deviceID)
	})
	if err != nil {
		s.deps.Notifier.Error(messageOr(err, constants.MsgDeleteFailed))
		return err
	}

	s.LoadDevices(ctx)

	s.deps.Notifier.Success(constants.MsgDeleteSucceeded)
	userID := ""
	if st.User != nil {
		userID = st.User.ID
	}
	s.audit.LogDeviceDeleted(ctx, userID, deviceID)
	return nil
}

const (
	ceremonyRegister = "register"
	ceremonyValidate = "validate"
)

// precondition reports an action that could not start: one warning, no network call.
func (s *webAuthnServiceImpl) precondition(err errors.UATSError, warning string) error {
	s.deps.Notifier.Warn(warning)
	return err
}

// failCeremony emits the single error notification of a failed ceremony and returns the error to re-raise.
func (s *webAuthnServiceImpl) failCeremony(ctx context.Context, ceremony string, err error) error {
	var (
		message string
		outcome string
		out     error
	)

	if ce, ok := err.(*domainservice.CeremonyError); ok {
		outcome = ce.Kind.String()
		switch ce.Kind {
		case domainservice.CeremonyCancelled:
			message = constants.MsgRegistrationCancelled
			if ceremony == ceremonyValidate {
				message = constants.MsgValidationCancelled
			}
			out = errors.ErrCeremonyCancelled(message).WithCause(ce)
		case domainservice.CeremonyUnsupported:
			message = constants.MsgWebAuthnUnsupported
			out = errors.ErrCeremonyUnsupported(message).WithCause(ce)
		default:
			message = messageOr(ce.Err, defaultCeremonyMessage(ceremony))
			out = errors.ErrCeremonyFailed(message).WithCause(ce)
		}
	} else {
		outcome = "backend_error"
		message = messageOr(err, defaultCeremonyMessage(ceremony))
		out = err
	}

	s.deps.Notifier.Error(message)
	s.deps.Metrics.RecordCeremony(ceremony, outcome)
	s.log.Warn(ctx, "WebAuthn ceremony failed",
		logger.String("ceremony", ceremony),
		logger.String("outcome", outcome),
		logger.Err(err),
	)
	return out
}

func defaultCeremonyMessage(ceremony string) string {
	if ceremony == ceremonyValidate {
		return constants.MsgValidationFailed
	}
	return constants.MsgRegistrationFailed
}

// messageOr returns err's message, or fallback when there is none.
func messageOr(err error, fallback string) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return fallback
	}
	return err.Error()
}
