// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

// StoreMessage handles POST /api/v1/messages.
//
// Messages whose id was generated locally for a delivered report are
// acknowledged without being stored. Signaling messages with an eligible
// campaign have their areas registered before the response is sent.
func (h *Handler) StoreMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req MessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	msg := req.Message()

	if h.deps.Duplicates != nil && h.deps.Duplicates.IsDuplicate(msg.MessageID) {
		logging.Ctx(r.Context()).Debug().Str("message_id", msg.MessageID).Msg("Ignoring duplicate of a locally generated message")
		respondSuccess(w, http.StatusOK, MessageResponse{MessageID: msg.MessageID, Duplicate: true}, start)
		return
	}

	campaign, err := msg.Campaign()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_CAMPAIGN", "internalData does not contain a valid campaign", err)
		return
	}

	if err := h.deps.Messages.Save(r.Context(), msg); err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_FAILED", "Failed to store message", err)
		return
	}

	hasCampaign := campaign != nil && len(campaign.Areas) > 0
	if hasCampaign && h.deps.Recovery != nil {
		if err := h.deps.Recovery.OnMessageStored(r.Context(), msg); err != nil {
			// The message is stored; the next recovery pass registers it.
			logging.Ctx(r.Context()).Warn().Err(err).Str("message_id", msg.MessageID).Msg("Failed to register campaign areas")
		}
	}

	respondSuccess(w, http.StatusCreated, MessageResponse{
		MessageID: msg.MessageID,
		Stored:    true,
		Campaign:  hasCampaign,
	}, start)
}

// ListInbox handles GET /api/v1/inbox.
func (h *Handler) ListInbox(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Inbox == nil {
		respondSuccess(w, http.StatusOK, []*models.Message{}, start)
		return
	}
	msgs, err := h.deps.Inbox.FindAll(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INBOX_FAILED", "Failed to list inbox", err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	respondSuccess(w, http.StatusOK, msgs, start)
}
