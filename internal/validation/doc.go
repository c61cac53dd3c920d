// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package validation wraps go-playground/validator v10 for the API edge.
//
// A single validator instance is built once with the custom tags the HTTP
// request DTOs need and is shared by every handler:
//
//   - eventtype: accepts entry, exit, dwell and the "enter" alias
//
// Failures are returned as *RequestValidationError, which converts to the
// VALIDATION_ERROR body of models.APIError:
//
//	type transitionRequest struct {
//	    AreaIDs []string `json:"areaIds" validate:"required,min=1,dive,required"`
//	    Event   string   `json:"event" validate:"required,eventtype"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, verr.ToAPIError())
//	    return
//	}
package validation
