package handlers

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/logger"
)

// latestSnapshot holds at most one pending snapshot. Putting a new one replaces
// whatever the reader has not taken yet.
type latestSnapshot struct {
	mu sync.Mutex
	ch chan models.AppState
}

func newLatestSnapshot() *latestSnapshot {
	return &latestSnapshot{ch: make(chan models.AppState, 1)}
}

func (l *latestSnapshot) put(snapshot models.AppState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		select {
		case l.ch <- snapshot:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// StateHandler exposes the global console state.
type StateHandler struct {
	store state.StateStore
	log   logger.Logger
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(store state.StateStore, log logger.Logger) *StateHandler {
	return &StateHandler{store: store, log: log.WithComponent("state-handler")}
}

// GetState handles GET /api/state.
func (h *StateHandler) GetState(c *gin.Context) {
	sendSuccess(c, http.StatusOK, dto.NewStateResponse(h.store.State()))
}

// Stream handles GET /api/state/stream. It sends the current state and then one
// server-sent event per dispatch. A client that falls behind skips intermediate
// snapshots but always receives the latest one.
func (h *StateHandler) Stream(c *gin.Context) {
	pending := newLatestSnapshot()
	unsubscribe := h.store.Subscribe(func(snapshot models.AppState, _ state.Action) {
		pending.put(snapshot)
	})
	defer unsubscribe()

	ctx := c.Request.Context()
	c.SSEvent("state", dto.NewStateResponse(h.store.State()))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot := <-pending.ch:
			c.SSEvent("state", dto.NewStateResponse(snapshot))
			return true
		case <-ctx.Done():
			return false
		}
	})
	h.log.Debug(ctx, "State stream closed")
}
