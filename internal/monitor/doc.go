// Package monitor is the health-aggregation core: it owns the service
// registry, runs per-service health probes, and caches the slow data
// sources (speed test, community stats) behind explicit refresh triggers.
// Accessors never perform I/O; the presentation layer polls cached state
// and asks for refreshes on its own cadence.
package monitor
