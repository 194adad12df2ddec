package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/utils"
)

// SessionController signs the console in and out of the identity provider.
// SessionController 控制台在身份提供者处的登录与登出。
type SessionController interface {
	SignIn(ctx context.Context, token string) error
	SignOut(ctx context.Context)
}

// SessionHandler handles the signed-in identity.
type SessionHandler struct {
	store      state.StateStore
	controller SessionController
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store state.StateStore, controller SessionController) *SessionHandler {
	return &SessionHandler{store: store, controller: controller}
}

// Get handles GET /api/session.
func (h *SessionHandler) Get(c *gin.Context) {
	sendSuccess(c, http.StatusOK, dto.NewSessionResponse(h.store.State()))
}

// SignIn handles POST /api/session. The token refresh that follows runs in the background;
// callers watch tokenLoading to learn when it settles.
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("Invalid request body").WithCause(err))
		return
	}
	if vErr := utils.ValidateStruct(req); vErr != nil {
		sendError(c, vErr)
		return
	}
	if err := h.controller.SignIn(c.Request.Context(), req.Token); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusAccepted, dto.NewSessionResponse(h.store.State()))
}

// SignOut handles DELETE /api/session.
func (h *SessionHandler) SignOut(c *gin.Context) {
	h.controller.SignOut(c.Request.Context())
	c.Status(http.StatusNoContent)
}
