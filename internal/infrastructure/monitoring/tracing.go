// Package monitoring 提供分布式追踪的实现
package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/pkg/logger"
)

// TracingManager 管理 OpenTelemetry 追踪
type TracingManager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewTracingManager 创建追踪管理器。传播器总是被设置，以便后端调用携带 traceparent。
func NewTracingManager(ctx context.Context, cfg *config.Config, log logger.Logger) (*TracingManager, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Tracing.Enabled {
		log.Info(ctx, "Tracing is disabled")
		return &TracingManager{
			tracer: otel.Tracer(cfg.Tracing.ServiceName),
			logger: log,
		}, nil
	}

	// 创建 OTLP/HTTP exporter
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Tracing.OTLPEndpoint)}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// 创建资源
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.Tracing.ServiceName),
			attribute.String("deployment.environment", cfg.App.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := newTracerProvider(sdktrace.WithBatcher(exporter), res, cfg.Tracing.SamplingRate)
	otel.SetTracerProvider(provider)

	log.Info(ctx, "Tracing initialized successfully",
		logger.String("endpoint", cfg.Tracing.OTLPEndpoint),
		logger.Any("sample_rate", cfg.Tracing.SamplingRate),
	)

	return &TracingManager{
		tracer:   provider.Tracer(cfg.Tracing.ServiceName),
		provider: provider,
		logger:   log,
	}, nil
}

func newTracerProvider(processor sdktrace.TracerProviderOption, res *resource.Resource, rate float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
}

// Tracer 返回服务的 tracer
func (tm *TracingManager) Tracer() trace.Tracer {
	return tm.tracer
}

// StartSpan 开始一个新的 Span
func (tm *TracingManager) StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tm.tracer.Start(ctx, spanName, opts...)
}

// RecordError 记录错误到 Span
func (tm *TracingManager) RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID 获取当前 Trace ID
func (tm *TracingManager) GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// Shutdown 关闭追踪管理器
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	if tm.provider == nil {
		return nil
	}

	if err := tm.provider.Shutdown(ctx); err != nil {
		tm.logger.Error(ctx, "Failed to shutdown tracing provider", err)
		return err
	}

	tm.logger.Info(ctx, "Tracing provider shutdown successfully")
	return nil
}

// TraceOperation 追踪一个操作的辅助函数
func TraceOperation(ctx context.Context, tm *TracingManager, operationName string, fn func(context.Context) error) error {
	ctx, span := tm.StartSpan(ctx, operationName)
	defer span.End()

	if err := fn(ctx); err != nil {
		tm.RecordError(ctx, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

//Personal.AI order the ending
