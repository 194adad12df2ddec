package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/pkg/logger"
)

// HealthChecker reports the health of one dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (map[string]interface{}, error)
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checkers map[string]HealthChecker
	timeout  time.Duration
	log      logger.Logger
}

// NewHealthHandler creates a new HealthHandler. Nil checkers are skipped.
func NewHealthHandler(checkers map[string]HealthChecker, log logger.Logger) *HealthHandler {
	active := make(map[string]HealthChecker, len(checkers))
	for name, c := range checkers {
		if c != nil {
			active[name] = c
		}
	}
	return &HealthHandler{checkers: active, timeout: 3 * time.Second, log: log.WithComponent("health")}
}

// LivenessCheck handles GET /health/live.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "alive", Timestamp: time.Now().UTC()})
}

// ReadinessCheck handles GET /health/ready.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	checks := h.performChecks(c.Request.Context())

	status, httpStatus := "healthy", http.StatusOK
	for _, result := range checks {
		if result != "ok" {
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(httpStatus, dto.HealthResponse{Status: status, Timestamp: time.Now().UTC(), Checks: checks})
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
	)
	for name, checker := range h.checkers {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			result := "ok"
			if _, err := checker.HealthCheck(ctx); err != nil {
				result = "error: " + err.Error()
				h.log.Warn(ctx, "Health check failed", logger.String("check", name), logger.Err(err))
			}
			mu.Lock()
			checks[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()
	return checks
}

//Personal.AI order the ending
