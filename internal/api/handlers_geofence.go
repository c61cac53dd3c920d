// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geocampaign/internal/consistency"
	"github.com/tomtom215/geocampaign/internal/geofence"
	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/reporting"
)

// Transition handles POST /api/v1/transitions. Reports are resolved and
// durably queued before 202 is returned; delivery happens in the background.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req TransitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	event, err := models.ParseEventType(req.Event)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown event type", nil)
		return
	}

	t := geofence.Transition{
		TriggeredIDs: req.TriggeredIDs,
		Event:        event,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	if req.OccurredAt != nil {
		t.OccurredAt = *req.OccurredAt
	}

	reports, err := h.deps.Resolver.Resolve(r.Context(), t)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "RESOLVE_FAILED", "Failed to resolve transition", err)
		return
	}

	if err := h.deps.Pipeline.Report(r.Context(), reports); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, reporting.ErrQueueClosed) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, r, status, "ENQUEUE_FAILED", "Failed to queue reports", err)
		return
	}

	ids := make([]string, len(reports))
	for i := range reports {
		ids[i] = reports[i].MessageID
	}
	respondSuccess(w, http.StatusAccepted, TransitionResponse{Reports: len(reports), ClientMessageIDs: ids}, start)
}

// SystemEvent handles POST /api/v1/system-events. Once the body parses to a
// known kind the answer is always 202, whatever happens downstream.
func (h *Handler) SystemEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SystemEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	kind, err := consistency.ParseEventKind(req.Kind)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "UNKNOWN_EVENT_KIND", "Unknown system event kind", nil)
		return
	}

	resp := SystemEventResponse{Kind: kind.String(), Accepted: true}
	if err := h.deps.Recovery.Submit(consistency.Event{Kind: kind, Package: req.Package}); err != nil {
		logging.Ctx(r.Context()).Info().Err(err).Str("kind", kind.String()).Msg("System event not queued")
		resp.Accepted = false
		resp.Reason = err.Error()
	}
	respondSuccess(w, http.StatusAccepted, resp, start)
}

// Sync handles POST /api/v1/sync.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, err := h.deps.Pipeline.Synchronize(r.Context())
	resp := SyncResponse{}
	switch {
	case errors.Is(err, reporting.ErrRegistrationDisabled):
		respondError(w, r, http.StatusConflict, "REGISTRATION_DISABLED", "Push registration is disabled", nil)
		return
	case errors.Is(err, reporting.ErrQueueClosed):
		respondError(w, r, http.StatusServiceUnavailable, "QUEUE_CLOSED", "Report queue is closed", err)
		return
	case errors.Is(err, reporting.ErrHandOff):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Reports delivered but synthesized messages were not stored")
		resp.Warning = "Reports were delivered but synthesized messages could not be stored"
	case err != nil:
		respondError(w, r, http.StatusBadGateway, "SYNC_FAILED", "Reports could not be delivered and were requeued", err)
		return
	}

	if result != nil {
		resp.Delivered = true
		resp.MessageIDs = result.MessageIDs
		resp.FinishedCampaignIDs = result.FinishedCampaignIDs
		resp.SuspendedCampaignIDs = result.SuspendedCampaignIDs
	}
	respondSuccess(w, http.StatusOK, resp, start)
}

// Regions handles GET /api/v1/regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	regions := h.deps.Regions.Registered()
	if regions == nil {
		regions = []models.Area{}
	}
	respondSuccess(w, http.StatusOK, RegionsResponse{
		Available: h.deps.Regions.Available(),
		Count:     len(regions),
		Regions:   regions,
	}, start)
}

// CampaignStatus handles GET /api/v1/campaigns/{id}/status.
func (h *Handler) CampaignStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 256 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid campaign id", nil)
		return
	}

	status, err := h.deps.Status.Status(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STATUS_FAILED", "Failed to read campaign status", err)
		return
	}
	respondSuccess(w, http.StatusOK, CampaignStatusResponse{CampaignID: id, Status: string(status)}, start)
}

// GetRegistration handles GET /api/v1/registration.
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	enabled, err := h.deps.Registration.RegistrationEnabled(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to read registration flag", err)
		return
	}
	respondSuccess(w, http.StatusOK, RegistrationResponse{Enabled: enabled}, start)
}

// SetRegistration handles PUT /api/v1/registration.
func (h *Handler) SetRegistration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req RegistrationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.deps.Registration.SetRegistrationEnabled(r.Context(), *req.Enabled); err != nil {
		respondError(w, r, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to update registration flag", err)
		return
	}
	logging.Ctx(r.Context()).Info().Bool("enabled", *req.Enabled).Msg("Push registration updated")
	respondSuccess(w, http.StatusOK, RegistrationResponse{Enabled: *req.Enabled}, start)
}

// Reset handles POST /api/v1/reset: the queue, the status cache, the
// occurrence counters and the duplicate filter are cleared.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.deps.Pipeline.Reset(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, "RESET_FAILED", "Failed to reset reporting state", err)
		return
	}
	if h.deps.Occurrences != nil {
		if err := h.deps.Occurrences.Clear(r.Context()); err != nil {
			respondError(w, r, http.StatusInternalServerError, "RESET_FAILED", "Failed to reset occurrence counters", err)
			return
		}
	}
	if h.deps.Duplicates != nil {
		h.deps.Duplicates.Clear()
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"reset": true}, start)
}
