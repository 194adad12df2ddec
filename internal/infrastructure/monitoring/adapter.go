// Package monitoring provides adapters to connect the domain's metrics interface with a concrete implementation like Prometheus.
package monitoring

import (
	"time"

	"github.com/turtacn/uats/internal/domain/service"
)

// MetricsAdapter implements the domain's service.Metrics interface, sending metrics to a Prometheus backend.
// MetricsAdapter 实现了域的 service.Metrics 接口，将指标发送到 Prometheus 后端。
type MetricsAdapter struct {
	metrics *Metrics
}

// NewMetricsAdapter wraps a Prometheus Metrics object so it satisfies the domain's Metrics interface.
// NewMetricsAdapter 包装 Prometheus Metrics 对象，使其满足域的 Metrics 接口。
func NewMetricsAdapter(metrics *Metrics) service.Metrics {
	return &MetricsAdapter{metrics: metrics}
}

// RecordAPICall delegates the call to the underlying Prometheus Metrics object.
// RecordAPICall 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordAPICall(endpointKey string, success bool, duration time.Duration) {
	a.metrics.RecordAPICall(endpointKey, success, duration)
}

// RecordCeremony counts a ceremony outcome.
// RecordCeremony 统计一次仪式结果。
func (a *MetricsAdapter) RecordCeremony(ceremony, outcome string) {
	a.metrics.Ceremonies.WithLabelValues(ceremony, outcome).Inc()
}

// RecordTokenRefresh counts a refresh outcome. Skipped refreshes carry no latency.
// RecordTokenRefresh 统计一次令牌刷新结果。跳过的刷新不记录延迟。
func (a *MetricsAdapter) RecordTokenRefresh(outcome string, duration time.Duration) {
	a.metrics.TokenRefreshes.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		a.metrics.TokenRefreshTime.Observe(duration.Seconds())
	}
}

func (a *MetricsAdapter) RecordNotification(severity string) {
	a.metrics.Notifications.WithLabelValues(severity).Inc()
}

func (a *MetricsAdapter) RecordDeviceFallback() {
	a.metrics.DeviceFallbacks.Inc()
}

func (a *MetricsAdapter) SetDeviceCount(count int) {
	a.metrics.Devices.Set(float64(count))
}

// RecordCacheAccess delegates the call to the underlying Prometheus Metrics object.
// RecordCacheAccess 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordCacheAccess(cacheType string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	a.metrics.CacheAccesses.WithLabelValues(cacheType, result).Inc()
}
