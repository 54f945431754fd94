package goSession

import (
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess        = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure        = MetricID(internalmetrics.MetricLoginFailure)
	MetricRefreshSuccess      = MetricID(internalmetrics.MetricRefreshSuccess)
	MetricRefreshFailure      = MetricID(internalmetrics.MetricRefreshFailure)
	MetricRefreshReplay       = MetricID(internalmetrics.MetricRefreshReplay)
	MetricLogout              = MetricID(internalmetrics.MetricLogout)
	MetricAccessRevoked       = MetricID(internalmetrics.MetricAccessRevoked)
	MetricResetRequest        = MetricID(internalmetrics.MetricResetRequest)
	MetricResetSuccess        = MetricID(internalmetrics.MetricResetSuccess)
	MetricResetFailure        = MetricID(internalmetrics.MetricResetFailure)
	MetricNotifierFailure     = MetricID(internalmetrics.MetricNotifierFailure)
	MetricSessionsRevokedBulk = MetricID(internalmetrics.MetricSessionsRevokedBulk)
)

// Metrics holds lock-free atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When Enabled is false, all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled: cfg.Enabled,
	})
}
