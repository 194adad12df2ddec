package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/internal/application/service"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/utils"
)

// NotificationHandler handles the notification queue and the API error registry.
type NotificationHandler struct {
	store    state.StateStore
	notifier service.NotificationService
	registry service.ErrorRegistry
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(store state.StateStore, notifier service.NotificationService, registry service.ErrorRegistry) *NotificationHandler {
	return &NotificationHandler{store: store, notifier: notifier, registry: registry}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	sendSuccess(c, http.StatusOK, h.store.State().Notifications)
}

// Add handles POST /api/notifications.
func (h *NotificationHandler) Add(c *gin.Context) {
	var req dto.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("Invalid request body").WithCause(err))
		return
	}
	if vErr := utils.ValidateStruct(req); vErr != nil {
		sendError(c, vErr)
		return
	}

	severity := models.NormalizeSeverity(req.Type)
	var id int64
	if req.DurationMs == nil {
		id = h.addWithDefault(req.Message, severity)
	} else {
		id = h.notifier.Add(req.Message, severity, time.Duration(*req.DurationMs)*time.Millisecond)
	}
	sendSuccess(c, http.StatusCreated, dto.NotificationCreated{ID: id})
}

func (h *NotificationHandler) addWithDefault(message string, severity constants.Severity) int64 {
	switch severity {
	case constants.SeveritySuccess:
		return h.notifier.Success(message)
	case constants.SeverityWarning:
		return h.notifier.Warn(message)
	case constants.SeverityError:
		return h.notifier.Error(message)
	default:
		return h.notifier.Info(message)
	}
}

// Remove handles DELETE /api/notifications/:id. Unknown ids succeed.
func (h *NotificationHandler) Remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		sendError(c, errors.ErrInvalidRequest("notification id must be an integer"))
		return
	}
	h.notifier.Remove(id)
	c.Status(http.StatusNoContent)
}

// Clear handles DELETE /api/notifications.
func (h *NotificationHandler) Clear(c *gin.Context) {
	h.notifier.ClearAll()
	c.Status(http.StatusNoContent)
}

// Errors handles GET /api/errors.
func (h *NotificationHandler) Errors(c *gin.Context) {
	sendSuccess(c, http.StatusOK, h.registry.All())
}

// ClearError handles DELETE /api/errors/:key.
func (h *NotificationHandler) ClearError(c *gin.Context) {
	h.registry.Clear(c.Param("key"))
	c.Status(http.StatusNoContent)
}

// ClearErrors handles DELETE /api/errors.
func (h *NotificationHandler) ClearErrors(c *gin.Context) {
	h.registry.ClearAll()
	c.Status(http.StatusNoContent)
}
