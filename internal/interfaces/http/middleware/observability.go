package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/uats/internal/infrastructure/monitoring"
)

// ObservabilityMiddleware returns a Gin middleware that integrates Prometheus metrics and OpenTelemetry tracing.
// For each console request it starts a span named after the route template and records the
// in-flight gauge, the duration histogram and, for 4xx/5xx answers, the error counter.
// ObservabilityMiddleware 返回一个集成了 Prometheus 指标和 OpenTelemetry 跟踪的 Gin 中间件。
// 指标使用路由模板作为标签，以保持低基数。
func ObservabilityMiddleware(tracer trace.Tracer, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Use c.FullPath() to get the route template (e.g., "/api/webauthn/devices/:id") for low-cardinality labels.
		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}

		ctx, span := tracer.Start(c.Request.Context(), method+" "+path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		metrics.ActiveRequestsInc(path, method)
		defer metrics.ActiveRequestsDec(path, method)

		c.Next()

		status := c.Writer.Status()
		metrics.ObserveRequestDuration(path, method, status, time.Since(start).Seconds())
		if status >= 400 {
			metrics.IncRequestErrors(path, method, status)
		}
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}

		span.SetAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)
	}
}
