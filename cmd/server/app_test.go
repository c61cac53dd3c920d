// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geocampaign/internal/api"
	"github.com/tomtom215/geocampaign/internal/backend"
	"github.com/tomtom215/geocampaign/internal/config"
	"github.com/tomtom215/geocampaign/internal/models"
)

type apiEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d (%s)", method, path, resp.StatusCode, wantStatus, env.Data)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 0, Timeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Storage:   config.StorageConfig{InMemory: true},
		Backend:   config.BackendConfig{URL: backendURL, DeviceID: "device-1", Timeout: 5 * time.Second},
		Retry:     config.RetryConfig{MaxAttempts: 1},
		Reporting: config.ReportingConfig{SyncInterval: time.Minute, RegistrationEnabled: true},
		Geofence:  config.GeofenceConfig{DeliveryTimeZone: "UTC"},
		Security:  config.SecurityConfig{RateLimitDisabled: true},
	}
}

// TestAppSignalToInbox drives a campaign from its signaling message through
// a transition to the synthesized inbox message over the real HTTP surface.
func TestAppSignalToInbox(t *testing.T) {
	t.Parallel()

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req backend.ReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.EventReports) == 0 {
			http.Error(w, "bad batch", http.StatusBadRequest)
			return
		}
		ids := make(map[string]string, len(req.EventReports))
		for _, ev := range req.EventReports {
			ids[ev.ClientMessageID] = "srv-" + ev.CampaignID
		}
		_ = json.NewEncoder(w).Encode(backend.ReportResponse{MessageIDs: ids})
	}))
	defer backendSrv.Close()

	a, err := newApp(testConfig(backendSrv.URL))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	call(t, srv, http.MethodPost, "/api/v1/messages", api.MessageRequest{
		MessageID:    "M1",
		Title:        "Welcome",
		Body:         "You are near the store",
		InternalData: `{"campaignId":"C1","geo":[{"id":"A1","title":"Store","latitude":52.52,"longitude":13.405,"radiusInMeters":100}]}`,
	}, http.StatusCreated, nil)

	var regions api.RegionsResponse
	call(t, srv, http.MethodGet, "/api/v1/regions", nil, http.StatusOK, &regions)
	if regions.Count != 1 || regions.Regions[0].ID != "A1" {
		t.Fatalf("regions = %+v", regions)
	}

	var transition api.TransitionResponse
	call(t, srv, http.MethodPost, "/api/v1/transitions", api.TransitionRequest{
		TriggeredIDs: []string{"A1"},
		Event:        "entry",
	}, http.StatusAccepted, &transition)
	if transition.Reports != 1 {
		t.Fatalf("transition = %+v", transition)
	}
	a.pipeline.Wait()

	var inbox []*models.Message
	call(t, srv, http.MethodGet, "/api/v1/inbox", nil, http.StatusOK, &inbox)
	if len(inbox) != 1 || inbox[0].MessageID != "srv-C1" || inbox[0].Title != "Welcome" {
		t.Fatalf("inbox = %+v", inbox)
	}

	// The push echo of the locally generated id is recognized.
	var echo api.MessageResponse
	call(t, srv, http.MethodPost, "/api/v1/messages", api.MessageRequest{MessageID: transition.ClientMessageIDs[0]}, http.StatusOK, &echo)
	if !echo.Duplicate {
		t.Errorf("echo = %+v, want duplicate", echo)
	}

	// Entry is limited to one occurrence by default.
	call(t, srv, http.MethodPost, "/api/v1/transitions", api.TransitionRequest{
		TriggeredIDs: []string{"A1"},
		Event:        "entry",
	}, http.StatusAccepted, &transition)
	if transition.Reports != 0 {
		t.Errorf("second entry produced %d reports", transition.Reports)
	}

	var health api.HealthStatus
	call(t, srv, http.MethodGet, "/health", nil, http.StatusOK, &health)
	if health.PendingReports != 0 {
		t.Errorf("pending = %d", health.PendingReports)
	}
}
