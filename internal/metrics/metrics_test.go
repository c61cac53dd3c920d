// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Collectors are process globals, so tests assert on deltas.

func TestRecordTransitionAndReports(t *testing.T) {
	before := testutil.ToFloat64(TransitionsReceived.WithLabelValues("entry"))
	RecordTransition("entry")
	if got := testutil.ToFloat64(TransitionsReceived.WithLabelValues("entry")) - before; got != 1 {
		t.Errorf("expected transition counter +1, got %v", got)
	}

	before = testutil.ToFloat64(ReportsGenerated.WithLabelValues("exit"))
	RecordReportsGenerated("exit", 3)
	RecordReportsGenerated("exit", 0)
	if got := testutil.ToFloat64(ReportsGenerated.WithLabelValues("exit")) - before; got != 3 {
		t.Errorf("expected reports counter +3, got %v", got)
	}
}

func TestRecordFiltered(t *testing.T) {
	reasons := []string{FilterExpired, FilterInactive, FilterDeliveryWindow, FilterOverlap}
	for _, reason := range reasons {
		reason := reason
		t.Run(reason, func(t *testing.T) {
			before := testutil.ToFloat64(ReportsFiltered.WithLabelValues(reason))
			RecordFiltered(reason)
			if got := testutil.ToFloat64(ReportsFiltered.WithLabelValues(reason)) - before; got != 1 {
				t.Errorf("expected +1, got %v", got)
			}
		})
	}
}

func TestRecordSync(t *testing.T) {
	tests := []struct {
		outcome string
		batch   int
	}{
		{"success", 4},
		{"failure", 2},
		{"empty", 0},
		{"disabled", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.outcome, func(t *testing.T) {
			before := testutil.ToFloat64(SyncOutcomes.WithLabelValues(tt.outcome))
			RecordSync(tt.outcome, tt.batch, 10*time.Millisecond)
			if got := testutil.ToFloat64(SyncOutcomes.WithLabelValues(tt.outcome)) - before; got != 1 {
				t.Errorf("expected +1, got %v", got)
			}
		})
	}

	if testutil.ToFloat64(SyncLastSuccess) == 0 {
		t.Error("expected last success timestamp to be set")
	}
}

func TestRecordRecovery(t *testing.T) {
	before := testutil.ToFloat64(RecoveryRuns.WithLabelValues("full", "success"))
	RecordRecovery("full", "success", time.Millisecond)
	if got := testutil.ToFloat64(RecoveryRuns.WithLabelValues("full", "success")) - before; got != 1 {
		t.Errorf("expected +1, got %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/transitions", "202"))
	RecordAPIRequest("POST", "/api/v1/transitions", "202", 5*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/transitions", "202")) - before; got != 1 {
		t.Errorf("expected +1, got %v", got)
	}

	active := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - active; got != 1 {
		t.Errorf("expected active requests +1, got %v", got)
	}
	TrackActiveRequest(false)
}
