package featloc

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Locator.
type Option func(*Locator)

// WithLogger sets the logger for ingestion progress and per-record parse
// failures. If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		l.logger = logger
	}
}

// WithTimestamps captures the four filesystem timestamps from each file
// record and appends them to annotated output. By default timestamps are
// neither stored nor emitted.
func WithTimestamps(enabled bool) Option {
	return func(l *Locator) {
		l.captureTimes = enabled
	}
}

// WithRegisterer registers ingestion and annotation counters with the given
// Prometheus registerer. If not set, metrics are collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Locator) {
		l.reg = reg
	}
}
