package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/internal/application/service"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/errors"
)

// WebAuthnHandler handles security-key management.
// WebAuthnHandler 处理安全密钥管理。
type WebAuthnHandler struct {
	store   state.StateStore
	service service.WebAuthnService
}

// NewWebAuthnHandler creates a new WebAuthnHandler.
func NewWebAuthnHandler(store state.StateStore, svc service.WebAuthnService) *WebAuthnHandler {
	return &WebAuthnHandler{store: store, service: svc}
}

// ListDevices handles GET /api/webauthn/devices. It reloads the list unless ?cached=true.
func (h *WebAuthnHandler) ListDevices(c *gin.Context) {
	if c.Query("cached") != "true" {
		h.service.LoadDevices(c.Request.Context())
	}
	sendSuccess(c, http.StatusOK, dto.NewDevicesResponse(h.store.State()))
}

// RegisterDevice handles POST /api/webauthn/devices.
func (h *WebAuthnHandler) RegisterDevice(c *gin.Context) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("Invalid request body").WithCause(err))
		return
	}
	if err := h.service.RegisterDevice(c.Request.Context(), req.Name); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, dto.NewDevicesResponse(h.store.State()))
}

// ValidateDevice handles POST /api/webauthn/validate.
func (h *WebAuthnHandler) ValidateDevice(c *gin.Context) {
	if err := h.service.ValidateDevice(c.Request.Context()); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"verified": true})
}

// DeleteDevice handles DELETE /api/webauthn/devices/:id.
func (h *WebAuthnHandler) DeleteDevice(c *gin.Context) {
	if err := h.service.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, dto.NewDevicesResponse(h.store.State()))
}
