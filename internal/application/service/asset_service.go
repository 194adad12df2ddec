package service

import (
	"context"
	"strings"

	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
	"github.com/turtacn/uats/pkg/utils"
)

// AssetService defines the balance, transfer and history operations.
type AssetService interface {
	// Balances loads the user's balances. It returns nil without a user and token, or after a recorded failure.
	Balances(ctx context.Context) []models.Balance

	// Transfer submits a transfer instruction. Failures are notified and returned.
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferReceipt, error)

	// History loads the user's transfer history with the same failure policy as Balances.
	History(ctx context.Context) []models.TransferRecord
}

type assetServiceImpl struct {
	deps  Dependencies
	api   domainservice.AssetAPI
	log   logger.Logger
	audit *logger.AuditLogger
}

// NewAssetService creates a new AssetService.
func NewAssetService(deps Dependencies, api domainservice.AssetAPI) AssetService {
	deps = deps.withDefaults()
	return &assetServiceImpl{
		deps:  deps,
		api:   api,
		log:   deps.Logger.WithComponent("assets"),
		audit: logger.NewAuditLogger(deps.Logger),
	}
}

func (s *assetServiceImpl) Balances(ctx context.Context) []models.Balance {
	st := s.deps.Store.State()
	if st.User == nil || !st.HasToken() {
		return nil
	}

	balances, err := trackCall(ctx, s.deps, constants.ErrorKeyAssetBalances, func(ctx context.Context) ([]models.Balance, error) {
		return s.api.Balances(ctx, st.JWTToken, st.User.ID)
	})
	if err != nil {
		s.deps.Notifier.Error(constants.MsgBalancesLoadFailed)
		return nil
	}
	return balances
}

func (s *assetServiceImpl) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferReceipt, error) {
	st := s.deps.Store.State()
	if st.User == nil || !st.HasToken() {
		s.deps.Notifier.Warn(constants.MsgMissingUserOrToken)
		return nil, errors.ErrPrecondition(constants.MsgMissingUserOrToken)
	}

	req.FromAccount = strings.TrimSpace(req.FromAccount)
	req.ToAccount = strings.TrimSpace(req.ToAccount)
	req.Coin = strings.ToUpper(strings.TrimSpace(req.Coin))
	req.Amount = strings.TrimSpace(req.Amount)
	if req.ChainPriority == "" {
		req.ChainPriority = models.ChainPriorityMedium
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		s.deps.Notifier.Warn(verr.Error())
		return nil, verr
	}

	receipt, err := trackCall(ctx, s.deps, constants.ErrorKeyAssetTransfer, func(ctx context.Context) (*models.TransferReceipt, error) {
		return s.api.Transfer(ctx, st.JWTToken, req)
	})
	if err != nil {
		s.deps.Notifier.Error(messageOr(err, constants.MsgTransferFailed))
		return nil, err
	}

	s.deps.Notifier.Success(constants.MsgTransferSucceeded)
	s.audit.LogTransferIssued(ctx, st.User.ID, req.FromAccount, req.ToAccount, req.Coin, req.Amount)
	return receipt, nil
}

func (s *assetServiceImpl) History(ctx context.Context) []models.TransferRecord {
	st := s.deps.Store.State()
	if st.User == nil || !st.HasToken() {
		return nil
	}

	history, err := trackCall(ctx, s.deps, constants.ErrorKeyAssetHistory, func(ctx context.Context) ([]models.TransferRecord, error) {
		return s.api.History(ctx, st.JWTToken, st.User.ID)
	})
	if err != nil {
		s.deps.Notifier.Error(constants.MsgHistoryLoadFailed)
		return nil
	}
	return history
}
