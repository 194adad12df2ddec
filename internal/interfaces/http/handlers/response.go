package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/pkg/errors"
)

func traceID(c *gin.Context) string {
	sc := trace.SpanContextFromContext(c.Request.Context())
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func sendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.SuccessResponse(data, traceID(c)))
}

// sendError answers with the status the error maps to and aborts the chain.
func sendError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.StatusOf(err), dto.ErrorResponse(err, traceID(c)))
}
