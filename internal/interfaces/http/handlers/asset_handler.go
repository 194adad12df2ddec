package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/uats/internal/application/service"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
)

// AssetHandler handles balances, transfers, history and the user profile.
type AssetHandler struct {
	assets   service.AssetService
	profiles service.ProfileService
	registry service.ErrorRegistry
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assets service.AssetService, profiles service.ProfileService, registry service.ErrorRegistry) *AssetHandler {
	return &AssetHandler{assets: assets, profiles: profiles, registry: registry}
}

// Balances handles GET /api/assets/balances. A failed load answers 200 with an empty list
// and the registry message, as the dashboard shows both.
func (h *AssetHandler) Balances(c *gin.Context) {
	balances := h.assets.Balances(c.Request.Context())
	if balances == nil {
		balances = []models.Balance{}
	}
	msg, _ := h.registry.Get(constants.ErrorKeyAssetBalances)
	sendSuccess(c, http.StatusOK, gin.H{"balances": balances, "error": msg})
}

// History handles GET /api/assets/history.
func (h *AssetHandler) History(c *gin.Context) {
	history := h.assets.History(c.Request.Context())
	if history == nil {
		history = []models.TransferRecord{}
	}
	msg, _ := h.registry.Get(constants.ErrorKeyAssetHistory)
	sendSuccess(c, http.StatusOK, gin.H{"history": history, "error": msg})
}

// Transfer handles POST /api/assets/transfer.
func (h *AssetHandler) Transfer(c *gin.Context) {
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("Invalid request body").WithCause(err))
		return
	}
	receipt, err := h.assets.Transfer(c.Request.Context(), req)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, receipt)
}

// Profile handles GET /api/profile. Without a session there is no profile to show.
func (h *AssetHandler) Profile(c *gin.Context) {
	profile, err := h.profiles.Profile(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	if profile == nil {
		sendError(c, errors.ErrPrecondition(constants.MsgMissingUserOrToken))
		return
	}
	sendSuccess(c, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile.
func (h *AssetHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		sendError(c, errors.ErrInvalidRequest("Invalid request body").WithCause(err))
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), update)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, profile)
}

//Personal.AI order the ending
