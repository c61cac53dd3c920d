// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func TestAreaIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		area Area
		want bool
	}{
		{"complete", NewArea("A1", "t", 1, 2, 100), true},
		{"missing id", Area{Latitude: ptrFloat(1), Longitude: ptrFloat(2), RadiusMeters: ptrInt(100)}, false},
		{"missing latitude", Area{ID: "A1", Longitude: ptrFloat(2), RadiusMeters: ptrInt(100)}, false},
		{"missing longitude", Area{ID: "A1", Latitude: ptrFloat(1), RadiusMeters: ptrInt(100)}, false},
		{"missing radius", Area{ID: "A1", Latitude: ptrFloat(1), Longitude: ptrFloat(2)}, false},
		{"zero values present", Area{ID: "A1", Latitude: ptrFloat(0), Longitude: ptrFloat(0), RadiusMeters: ptrInt(0)}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.area.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAreaDecodePresence(t *testing.T) {
	t.Parallel()

	var a Area
	if err := json.Unmarshal([]byte(`{"id":"A1","latitude":0,"longitude":18.1}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Latitude == nil || *a.Latitude != 0 {
		t.Error("expected explicit zero latitude to be present")
	}
	if a.IsValid() {
		t.Error("expected area without radius to be invalid")
	}
}

func TestCampaignEligibility(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour).Format(time.RFC3339)
	tomorrow := now.Add(24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name         string
		campaign     Campaign
		wantExpired  bool
		wantEligible bool
	}{
		{"no bounds", Campaign{}, false, true},
		{"started, not expired", Campaign{StartTime: yesterday, ExpiryTime: tomorrow}, false, true},
		{"start tomorrow", Campaign{StartTime: tomorrow}, false, false},
		{"expired yesterday", Campaign{ExpiryTime: yesterday}, true, false},
		{"unparsable start fails open", Campaign{StartTime: "not-a-date"}, false, true},
		{"unparsable expiry fails open", Campaign{ExpiryTime: "31/12/2020"}, false, true},
		{"offset format", Campaign{ExpiryTime: "2026-03-10T12:30:00+0100"}, true, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.campaign.IsExpired(now); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if got := tt.campaign.IsEligibleForMonitoring(now); got != tt.wantEligible {
				t.Errorf("IsEligibleForMonitoring() = %v, want %v", got, tt.wantEligible)
			}
		})
	}
}

func TestCampaignSettingsFor(t *testing.T) {
	t.Parallel()

	c := Campaign{}
	s, ok := c.SettingsFor(EventEntry)
	if !ok || s.Limit != 1 {
		t.Errorf("expected default entry settings with limit 1, got %+v ok=%v", s, ok)
	}
	if _, ok := c.SettingsFor(EventExit); ok {
		t.Error("expected exit to be disabled by default")
	}

	c.EventSettings = []EventSettings{{Type: EventExit, Limit: 0, TimeoutInMinutes: 5}}
	if _, ok := c.SettingsFor(EventEntry); ok {
		t.Error("expected entry to be disabled when only exit is configured")
	}
	if s, ok := c.SettingsFor(EventExit); !ok || s.TimeoutInMinutes != 5 {
		t.Errorf("unexpected exit settings %+v ok=%v", s, ok)
	}
}

func TestCampaignValidAreasAndSingleArea(t *testing.T) {
	t.Parallel()

	c := Campaign{
		CampaignID: "C1",
		Areas: []Area{
			NewArea("A1", "", 1, 1, 100),
			{ID: "broken"},
			NewArea("A2", "", 2, 2, 50),
		},
	}
	valid := c.ValidAreas()
	if len(valid) != 2 || valid[0].ID != "A1" || valid[1].ID != "A2" {
		t.Fatalf("unexpected valid areas %+v", valid)
	}

	single := c.WithSingleArea(valid[1])
	if len(single.Areas) != 1 || single.Areas[0].ID != "A2" {
		t.Errorf("unexpected single-area campaign %+v", single.Areas)
	}
	if len(c.Areas) != 3 {
		t.Error("WithSingleArea must not mutate the original campaign")
	}
}

func TestDeliveryTimeAllows(t *testing.T) {
	t.Parallel()

	// 2026-03-10 is a Tuesday (ISO 2).
	at := func(h, m int) time.Time { return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC) }
	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dt      *DeliveryTime
		t       time.Time
		want    bool
		wantErr bool
	}{
		{"nil allows", nil, at(3, 0), true, false},
		{"empty allows", &DeliveryTime{}, at(3, 0), true, false},
		{"day included", &DeliveryTime{Days: "1,2,3"}, at(3, 0), true, false},
		{"day excluded", &DeliveryTime{Days: "4,5"}, at(3, 0), false, false},
		{"sunday is 7", &DeliveryTime{Days: "7"}, sunday, true, false},
		{"slash window inside", &DeliveryTime{TimeInterval: "0900/1700"}, at(12, 0), true, false},
		{"slash window end exclusive", &DeliveryTime{TimeInterval: "0900/1700"}, at(17, 0), false, false},
		{"colon window inside", &DeliveryTime{TimeInterval: "09:00-17:00"}, at(9, 0), true, false},
		{"midnight crossing late", &DeliveryTime{TimeInterval: "2200/0600"}, at(23, 30), true, false},
		{"midnight crossing early", &DeliveryTime{TimeInterval: "2200/0600"}, at(5, 59), true, false},
		{"midnight crossing outside", &DeliveryTime{TimeInterval: "2200/0600"}, at(12, 0), false, false},
		{"equal bounds cover the day", &DeliveryTime{TimeInterval: "0900/0900"}, at(3, 0), true, false},
		{"equal bounds at the bound", &DeliveryTime{TimeInterval: "09:00-09:00"}, at(9, 0), true, false},
		{"equal bounds keep the day filter", &DeliveryTime{Days: "4", TimeInterval: "0000/0000"}, at(12, 0), false, false},
		{"both restrictions", &DeliveryTime{Days: "2", TimeInterval: "1000/1100"}, at(10, 30), true, false},
		{"bad day", &DeliveryTime{Days: "8"}, at(10, 0), false, true},
		{"bad interval", &DeliveryTime{TimeInterval: "25:00-26:00"}, at(10, 0), false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.dt.Allows(tt.t)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Allows() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDeliveryTime) {
					t.Errorf("expected ErrInvalidDeliveryTime, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Allows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEventType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]EventType{"ENTRY": EventEntry, "enter": EventEntry, "exit": EventExit, " Dwell ": EventDwell} {
		got, err := ParseEventType(in)
		if err != nil || got != want {
			t.Errorf("ParseEventType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseEventType("leave"); !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestMessageCampaign(t *testing.T) {
	t.Parallel()

	t.Run("signaling message", func(t *testing.T) {
		t.Parallel()
		m := Message{
			MessageID:    "M1",
			InternalData: `{"campaignId":"C1","geo":[{"id":"A1","latitude":1,"longitude":2,"radiusInMeters":100}],"inbox":{"topic":"x"}}`,
		}
		c, err := m.Campaign()
		if err != nil {
			t.Fatalf("Campaign() error: %v", err)
		}
		if c == nil || c.CampaignID != "C1" || len(c.Areas) != 1 || c.Areas[0].Radius() != 100 {
			t.Fatalf("unexpected campaign %+v", c)
		}
		if !m.HasCampaign() {
			t.Error("expected HasCampaign() to be true")
		}
	})

	t.Run("plain message", func(t *testing.T) {
		t.Parallel()
		m := Message{MessageID: "M2", InternalData: `{"inbox":{}}`}
		c, err := m.Campaign()
		if err != nil || c != nil {
			t.Errorf("expected no campaign, got %+v, %v", c, err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		m := Message{MessageID: "M3", InternalData: `{"geo":`}
		if _, err := m.Campaign(); err == nil {
			t.Error("expected decode error")
		}
		if m.HasCampaign() {
			t.Error("malformed message must not report a campaign")
		}
	})
}

func TestInternalDataWithCampaignKeepsOtherKeys(t *testing.T) {
	t.Parallel()

	m := Message{
		MessageID:    "M1",
		InternalData: `{"campaignId":"C1","geo":[{"id":"A1"},{"id":"A2"}],"inbox":{"topic":"deals"}}`,
	}
	c, err := m.Campaign()
	if err != nil {
		t.Fatal(err)
	}

	data, err := m.InternalDataWithCampaign(c.WithSingleArea(c.Areas[1]))
	if err != nil {
		t.Fatalf("InternalDataWithCampaign: %v", err)
	}
	if !strings.Contains(data, `"inbox"`) {
		t.Errorf("expected inbox key to survive, got %s", data)
	}

	out := Message{MessageID: "X", InternalData: data}
	oc, err := out.Campaign()
	if err != nil || oc == nil || len(oc.Areas) != 1 || oc.Areas[0].ID != "A2" {
		t.Errorf("expected single area A2, got %+v (%v)", oc, err)
	}
}

func TestGeoReportingResult(t *testing.T) {
	t.Parallel()

	var nilResult *GeoReportingResult
	if !nilResult.Failed() {
		t.Error("nil result should be treated as failed")
	}
	if got := nilResult.ServerMessageID("c1"); got != "c1" {
		t.Errorf("expected fallback to client id, got %q", got)
	}

	r := &GeoReportingResult{MessageIDs: map[string]string{"c1": "srv-123", "c2": ""}}
	if r.Failed() {
		t.Error("expected success")
	}
	if got := r.ServerMessageID("c1"); got != "srv-123" {
		t.Errorf("expected srv-123, got %q", got)
	}
	if got := r.ServerMessageID("c2"); got != "c2" {
		t.Errorf("expected empty mapping to fall back, got %q", got)
	}
}

func TestGeoReportSecondsSinceOccurrence(t *testing.T) {
	t.Parallel()

	occurred := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := GeoReport{TimestampOccurred: occurred}
	if got := r.SecondsSinceOccurrence(occurred.Add(90 * time.Second)); got != 90 {
		t.Errorf("expected 90, got %d", got)
	}
	if got := r.SecondsSinceOccurrence(occurred.Add(-time.Minute)); got != 0 {
		t.Errorf("expected clock skew to clamp to 0, got %d", got)
	}

	a := GeoReport{CampaignID: "C1", Event: EventEntry, Area: Area{ID: "A1"}, SignalingMessageID: "M1", MessageID: "x"}
	b := a
	if a.Key() != b.Key() {
		t.Error("expected equal keys for equal reports")
	}
	b.Event = EventExit
	if a.Key() == b.Key() {
		t.Error("expected different keys for different events")
	}
}
