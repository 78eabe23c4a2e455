// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package metrics exposes Prometheus instrumentation for the HTTP API, the
// scan pipeline, the hosts sync, and the outbound Plex/rclone clients.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Scan Pipeline Metrics
	ScanEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_events_received_total",
			Help: "Total number of transfer events received",
		},
		[]string{"media_type"},
	)

	ScanQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scan_queue_depth",
			Help: "Current number of queued scan entries awaiting drain",
		},
	)

	ScanDirectories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_directories_total",
			Help: "Total number of directory scans triggered",
		},
		[]string{"result"}, // "success", "failure"
	)

	ScanDrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_drain_duration_seconds",
			Help:    "Duration of scan queue drains in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	VFSRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfs_refreshes_total",
			Help: "Total number of rclone VFS cache refresh calls",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Hosts Sync Metrics
	HostsSyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hosts_sync_runs_total",
			Help: "Total number of hosts sync runs",
		},
		[]string{"result"}, // "success", "failure"
	)

	HostsSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hosts_sync_duration_seconds",
			Help:    "Duration of hosts sync runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	HostsEntriesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hosts_entries_updated_total",
			Help: "Total number of remote hosts entries updated in place",
		},
	)

	HostsEntriesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hosts_entries_appended_total",
			Help: "Total number of hosts entries appended to the remote file",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Notification Metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of webhook notifications",
		},
		[]string{"result"}, // "success", "failure"
	)
)

// RecordAPIRequest records an API request with its duration.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordHostsSync records one hosts sync run.
func RecordHostsSync(duration time.Duration, updated, appended int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	HostsSyncRuns.WithLabelValues(result).Inc()
	HostsSyncDuration.Observe(duration.Seconds())
	if err == nil {
		HostsEntriesUpdated.Add(float64(updated))
		HostsEntriesAppended.Add(float64(appended))
	}
}

// RecordDirectoryScan records the outcome of one directory scan.
func RecordDirectoryScan(err error) {
	if err != nil {
		ScanDirectories.WithLabelValues("failure").Inc()
		return
	}
	ScanDirectories.WithLabelValues("success").Inc()
}

// RecordVFSRefresh records the outcome of one rclone VFS refresh call.
func RecordVFSRefresh(err error) {
	if err != nil {
		VFSRefreshes.WithLabelValues("failure").Inc()
		return
	}
	VFSRefreshes.WithLabelValues("success").Inc()
}

// RecordNotification records the outcome of one webhook delivery.
func RecordNotification(err error) {
	if err != nil {
		NotificationsSent.WithLabelValues("failure").Inc()
		return
	}
	NotificationsSent.WithLabelValues("success").Inc()
}
