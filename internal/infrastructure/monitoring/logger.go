package monitoring

import (
	"context"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/logger"
)

type zapLogger struct {
	*zap.Logger
	level *zap.AtomicLevel
}

// NewZapLogger builds the production logger on stdout.
func NewZapLogger(cfg *config.LogConfig) (logger.Logger, error) {
	return NewZapLoggerTo(cfg, os.Stdout), nil
}

// NewZapLoggerTo builds a logger writing to w. The level can be changed later through SetLevel.
func NewZapLoggerTo(cfg *config.LogConfig, w io.Writer) logger.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.NewAtomicLevelAt(toZapLevel(constants.LogLevel(strings.ToLower(cfg.Level))))

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return &zapLogger{
		Logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)),
		level:  &level,
	}
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {
	l.Logger.Debug(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Field) {
	l.Logger.Info(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	l.Logger.Warn(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Field) {
	l.Logger.Error(msg, append(l.convertFields(ctx, fields...), zap.Error(err))...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Field) {
	l.Logger.Fatal(msg, append(l.convertFields(ctx, fields...), zap.Error(err))...)
}

func (l *zapLogger) WithFields(fields ...logger.Field) logger.Logger {
	return &zapLogger{Logger: l.Logger.With(l.convertFields(context.Background(), fields...)...), level: l.level}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{Logger: l.Logger.With(zap.String("component", component)), level: l.level}
}

// SetLevel applies to this logger and every logger derived from it.
func (l *zapLogger) SetLevel(level constants.LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *zapLogger) GetLevel() constants.LogLevel {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return constants.LogLevelDebug
	case zapcore.WarnLevel:
		return constants.LogLevelWarn
	case zapcore.ErrorLevel:
		return constants.LogLevelError
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return constants.LogLevelFatal
	default:
		return constants.LogLevelInfo
	}
}

func (l *zapLogger) convertFields(ctx context.Context, fields ...logger.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+4)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			zapFields = append(zapFields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		for k, v := range logger.ContextFields(ctx) {
			zapFields = append(zapFields, zap.Any(k, v))
		}
	}

	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, logger.Sanitize(f.Key, f.Value)))
	}
	return zapFields
}

func toZapLevel(level constants.LogLevel) zapcore.Level {
	switch level {
	case constants.LogLevelDebug:
		return zapcore.DebugLevel
	case constants.LogLevelWarn:
		return zapcore.WarnLevel
	case constants.LogLevelError:
		return zapcore.ErrorLevel
	case constants.LogLevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

//Personal.AI order the ending
