package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/turtacn/uats/pkg/logger"
)

const tracerName = "github.com/turtacn/uats/internal/application/service"

// trackCall runs fn as the call for endpoint key. Success clears the key's registry entry;
// failure records err's message under the key. The error is returned unchanged.
func trackCall[T any](ctx context.Context, d Dependencies, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestrate "+key)
	defer span.End()
	span.SetAttributes(attribute.String("uats.endpoint_key", key))

	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)

	d.Metrics.RecordAPICall(key, err == nil, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.Errors.Set(key, err.Error())
		d.Logger.Warn(ctx, "Backend call failed",
			logger.String("endpoint_key", key),
			logger.Duration("elapsed", elapsed),
			logger.Err(err),
		)
		return out, err
	}

	d.Errors.Clear(key)
	d.Logger.Debug(ctx, "Backend call succeeded",
		logger.String("endpoint_key", key),
		logger.Duration("elapsed", elapsed),
	)
	return out, nil
}
