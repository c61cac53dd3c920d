// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package api

import (
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status           string  `json:"status"`
	Uptime           float64 `json:"uptime_seconds"`
	MonitorAvailable bool    `json:"monitor_available"`
	PendingReports   int64   `json:"pending_reports"`
}

// ReadinessStatus is the readiness payload.
type ReadinessStatus struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /health. It always answers 200 while the process serves.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	}
	if h.deps.Regions != nil {
		status.MonitorAvailable = h.deps.Regions.Available()
		if !status.MonitorAvailable {
			status.Status = "degraded"
		}
	}
	if h.deps.Queue != nil {
		status.PendingReports = h.deps.Queue.Stats().PendingCount
	}
	respondSuccess(w, http.StatusOK, status, time.Time{})
}

// HealthReady handles GET /health/ready: 200 when every readiness check
// passes, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := ReadinessStatus{Ready: true, Checks: make(map[string]string, len(h.deps.Ready))}

	names := make([]string, 0, len(h.deps.Ready))
	for name := range h.deps.Ready {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.deps.Ready[name](r.Context()); err != nil {
			ready.Ready = false
			ready.Checks[name] = err.Error()
			continue
		}
		ready.Checks[name] = "ok"
	}

	status := http.StatusOK
	if !ready.Ready {
		status = http.StatusServiceUnavailable
	}
	respondSuccess(w, status, ready, time.Time{})
}
