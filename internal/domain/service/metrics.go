// Package service defines the interfaces for domain services.
package service

import (
	"time"
)

// Metrics defines the interface for collecting console metrics.
// This abstraction allows the application layer to remain independent of the specific monitoring implementation (e.g., Prometheus).
// Metrics 定义了收集控制台指标的接口。
// 这种抽象使应用层能够独立于具体的监控实现（例如 Prometheus）。
type Metrics interface {
	// RecordAPICall records an orchestrated backend call under its endpoint key.
	// RecordAPICall 按接口键记录一次编排的后端调用。
	RecordAPICall(endpointKey string, success bool, duration time.Duration)

	// RecordCeremony records the outcome of a registration or validation ceremony.
	// RecordCeremony 记录注册或验证仪式的结果。
	RecordCeremony(ceremony, outcome string)

	// RecordTokenRefresh records a token refresh outcome: success, failure, stale or skipped.
	// RecordTokenRefresh 记录令牌刷新的结果：成功、失败、过期或跳过。
	RecordTokenRefresh(outcome string, duration time.Duration)

	// RecordNotification records an emitted notification.
	// RecordNotification 记录一条发出的通知。
	RecordNotification(severity string)

	// RecordDeviceFallback records a device load that degraded to placeholder data.
	// RecordDeviceFallback 记录一次降级为占位数据的设备加载。
	RecordDeviceFallback()

	// SetDeviceCount updates the gauge of currently listed security keys.
	// SetDeviceCount 更新当前列出的安全密钥数量。
	SetDeviceCount(count int)

	// RecordCacheAccess records a cache hit or miss.
	// RecordCacheAccess 记录缓存命中或未命中。
	RecordCacheAccess(cacheType string, hit bool)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordAPICall(string, bool, time.Duration) {}
func (NoopMetrics) RecordCeremony(string, string)             {}
func (NoopMetrics) RecordTokenRefresh(string, time.Duration)  {}
func (NoopMetrics) RecordNotification(string)                 {}
func (NoopMetrics) RecordDeviceFallback()                     {}
func (NoopMetrics) SetDeviceCount(int)                        {}
func (NoopMetrics) RecordCacheAccess(string, bool)            {}
