package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestZapLogger_FieldsAndMasking(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerTo(&config.LogConfig{Level: "info"}, &buf).WithComponent("apiclient")

	ctx := context.WithValue(context.Background(), constants.ContextKeyRequestID, "req-1")
	log.Info(ctx, "calling backend", logger.String("jwt_token", "eyJhbGciOiJSUzI1NiJ9.payload.sig"), logger.Int("attempt", 1))
	log.Debug(ctx, "hidden")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "calling backend", entries[0]["msg"])
	assert.Equal(t, "apiclient", entries[0]["component"])
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.Equal(t, "eyJh***.sig", entries[0]["jwt_token"])
	assert.EqualValues(t, 1, entries[0]["attempt"])
}

func TestZapLogger_SetLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	root := NewZapLoggerTo(&config.LogConfig{Level: "warn"}, &buf)
	child := root.WithComponent("session-tracker")

	child.Info(context.Background(), "dropped")
	root.SetLevel(constants.LogLevelDebug)
	child.Debug(context.Background(), "kept")

	assert.Equal(t, constants.LogLevelDebug, child.GetLevel())
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestZapLogger_ErrorCarriesTraceID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := provider.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	NewZapLoggerTo(&config.LogConfig{Level: "info"}, &buf).Error(ctx, "failed", errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0]["trace_id"])
}

func TestMetricsAdapter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	adapter := NewMetricsAdapter(m)

	adapter.RecordAPICall(constants.ErrorKeyWebAuthnDevices, true, 20*time.Millisecond)
	adapter.RecordAPICall(constants.ErrorKeyWebAuthnDevices, false, 30*time.Millisecond)
	adapter.RecordAPICall(constants.ErrorKeyWebAuthnDevices, false, 30*time.Millisecond)
	adapter.RecordCeremony("register", "cancelled")
	adapter.RecordTokenRefresh("skipped", 0)
	adapter.RecordTokenRefresh("success", 5*time.Millisecond)
	adapter.RecordNotification("error")
	adapter.RecordDeviceFallback()
	adapter.SetDeviceCount(3)
	adapter.RecordCacheAccess("l1", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.APICalls.WithLabelValues(constants.ErrorKeyWebAuthnDevices, "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.APICalls.WithLabelValues(constants.ErrorKeyWebAuthnDevices, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ceremonies.WithLabelValues("register", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeviceFallbacks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Devices))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheAccesses.WithLabelValues("l1", "hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TokenRefreshTime))
}

func TestTraceOperation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tm := &TracingManager{tracer: provider.Tracer("test"), provider: provider, logger: logger.NewNoopLogger()}

	require.NoError(t, TraceOperation(context.Background(), tm, "devices list", func(ctx context.Context) error {
		assert.NotEmpty(t, tm.GetTraceID(ctx))
		return nil
	}))
	err := TraceOperation(context.Background(), tm, "devices delete", func(context.Context) error {
		return errors.New("not found")
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestNewTracingManager_Disabled(t *testing.T) {
	cfg := &config.Config{Tracing: config.TracingConfig{ServiceName: "uats-test"}}
	tm, err := NewTracingManager(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Empty(t, tm.GetTraceID(context.Background()))
	assert.NoError(t, tm.Shutdown(context.Background()))
}
