// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package geofence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/geocampaign/internal/cache"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/state"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) // Wednesday

type fakeMessages struct {
	msgs []*models.Message
	err  error
}

func (f *fakeMessages) FindAll(context.Context) ([]*models.Message, error) {
	return f.msgs, f.err
}

type fakeStatus struct {
	inactive map[string]bool
}

func (f *fakeStatus) IsActive(_ context.Context, id string) (bool, error) {
	return !f.inactive[id], nil
}

type fakeOccurrences struct {
	mu   sync.Mutex
	data map[string]state.Occurrence
}

func newFakeOccurrences() *fakeOccurrences {
	return &fakeOccurrences{data: make(map[string]state.Occurrence)}
}

func (f *fakeOccurrences) Get(_ context.Context, id string, event models.EventType) (state.Occurrence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[id+":"+string(event)], nil
}

func (f *fakeOccurrences) Record(_ context.Context, id string, event models.EventType, at time.Time) (state.Occurrence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.data[id+":"+string(event)]
	o.Count++
	o.Last = at
	f.data[id+":"+string(event)] = o
	return o, nil
}

func signaling(t *testing.T, id string, c *models.Campaign) *models.Message {
	t.Helper()
	m := &models.Message{MessageID: id, Title: "title " + id}
	data, err := m.InternalDataWithCampaign(c)
	if err != nil {
		t.Fatalf("InternalDataWithCampaign: %v", err)
	}
	m.InternalData = data
	return m
}

func newTestResolver(msgs []*models.Message, policy *Policy, dups DuplicateRecorder) *Resolver {
	r := NewResolver(&fakeMessages{msgs: msgs}, policy, dups)
	r.now = func() time.Time { return fixedNow }
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("client-%d", n)
	}
	return r
}

func entry(ids ...string) Transition {
	lat, lng := 52.52, 13.405
	return Transition{
		TriggeredIDs: ids,
		Event:        models.EventEntry,
		Latitude:     &lat,
		Longitude:    &lng,
		OccurredAt:   fixedNow.Add(-time.Minute),
	}
}

func TestResolve_OverlapPicksSmallestRadius(t *testing.T) {
	t.Parallel()

	c := &models.Campaign{
		CampaignID: "C1",
		Areas: []models.Area{
			models.NewArea("big", "Big", 52.5, 13.4, 200),
			models.NewArea("small", "Small", 52.5, 13.4, 50),
		},
	}
	r := newTestResolver([]*models.Message{signaling(t, "M1", c)}, nil, nil)

	reports, err := r.Resolve(context.Background(), entry("big", "small"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	got := reports[0]
	if got.Area.ID != "small" {
		t.Errorf("expected area small, got %s", got.Area.ID)
	}
	if got.CampaignID != "C1" || got.SignalingMessageID != "M1" || got.MessageID != "client-1" {
		t.Errorf("unexpected report identity: %+v", got)
	}
	if got.TriggeringLatitude == nil || *got.TriggeringLatitude != 52.52 {
		t.Errorf("triggering latitude not carried: %v", got.TriggeringLatitude)
	}
	if !got.TimestampOccurred.Equal(fixedNow.Add(-time.Minute)) {
		t.Errorf("unexpected occurred-at: %v", got.TimestampOccurred)
	}
}

func TestSmallestArea_TieBreak(t *testing.T) {
	t.Parallel()

	areas := []models.Area{
		models.NewArea("b", "", 1, 1, 100),
		models.NewArea("a", "", 1, 1, 100),
		models.NewArea("c", "", 1, 1, 100),
	}
	if got := SmallestArea(areas); got.ID != "a" {
		t.Errorf("expected a, got %s", got.ID)
	}
}

func TestResolve_SkipsIneligibleCampaigns(t *testing.T) {
	t.Parallel()

	area := models.NewArea("A1", "", 52.5, 13.4, 100)
	tests := []struct {
		name     string
		campaign models.Campaign
	}{
		{
			name: "starts tomorrow",
			campaign: models.Campaign{
				CampaignID: "C1",
				StartTime:  fixedNow.Add(24 * time.Hour).Format(time.RFC3339),
				Areas:      []models.Area{area},
			},
		},
		{
			name: "expired yesterday",
			campaign: models.Campaign{
				CampaignID: "C1",
				ExpiryTime: fixedNow.Add(-24 * time.Hour).Format(time.RFC3339),
				Areas:      []models.Area{area},
			},
		},
		{
			name: "event type not configured",
			campaign: models.Campaign{
				CampaignID:    "C1",
				Areas:         []models.Area{area},
				EventSettings: []models.EventSettings{{Type: models.EventExit}},
			},
		},
		{
			name: "outside delivery days",
			campaign: models.Campaign{
				CampaignID:   "C1",
				Areas:        []models.Area{area},
				DeliveryTime: &models.DeliveryTime{Days: "1"},
			},
		},
		{
			name: "outside delivery window",
			campaign: models.Campaign{
				CampaignID:   "C1",
				Areas:        []models.Area{area},
				DeliveryTime: &models.DeliveryTime{TimeInterval: "1200/1800"},
			},
		},
		{
			name: "area not triggered",
			campaign: models.Campaign{
				CampaignID: "C1",
				Areas:      []models.Area{models.NewArea("other", "", 1, 1, 10)},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := tt.campaign
			r := newTestResolver([]*models.Message{signaling(t, "M1", &c)}, &Policy{Location: time.UTC}, nil)
			reports, err := r.Resolve(context.Background(), entry("A1"))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(reports) != 0 {
				t.Errorf("expected no reports, got %+v", reports)
			}
		})
	}
}

func TestResolve_DeliveryWindowOpen(t *testing.T) {
	t.Parallel()

	c := &models.Campaign{
		CampaignID:   "C1",
		Areas:        []models.Area{models.NewArea("A1", "", 52.5, 13.4, 100)},
		DeliveryTime: &models.DeliveryTime{Days: "3", TimeInterval: "08:00-12:00"},
	}
	r := newTestResolver([]*models.Message{signaling(t, "M1", c)}, &Policy{Location: time.UTC}, nil)

	reports, err := r.Resolve(context.Background(), entry("A1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
}

func TestResolve_InactiveCampaign(t *testing.T) {
	t.Parallel()

	c := &models.Campaign{CampaignID: "C1", Areas: []models.Area{models.NewArea("A1", "", 52.5, 13.4, 100)}}
	status := &fakeStatus{inactive: map[string]bool{"C1": true}}

	checked := newTestResolver([]*models.Message{signaling(t, "M1", c)}, &Policy{Status: status, CheckStatusCache: true}, nil)
	reports, err := checked.Resolve(context.Background(), entry("A1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("inactive campaign reported: %+v", reports)
	}

	unchecked := newTestResolver([]*models.Message{signaling(t, "M1", c)}, &Policy{Status: status}, nil)
	reports, err = unchecked.Resolve(context.Background(), entry("A1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("expected report when status check disabled, got %d", len(reports))
	}
}

func TestResolve_OccurrenceLimitAndTimeout(t *testing.T) {
	t.Parallel()

	t.Run("limit", func(t *testing.T) {
		t.Parallel()
		c := &models.Campaign{
			CampaignID:    "C1",
			Areas:         []models.Area{models.NewArea("A1", "", 52.5, 13.4, 100)},
			EventSettings: []models.EventSettings{{Type: models.EventEntry, Limit: 2}},
		}
		occ := newFakeOccurrences()
		r := newTestResolver([]*models.Message{signaling(t, "M1", c)}, &Policy{Occurrences: occ}, nil)

		for i, want := range []int{1, 1, 0} {
			reports, err := r.Resolve(context.Background(), entry("A1"))
			if err != nil {
				t.Fatalf("Resolve #%d: %v", i, err)
			}
			if len(reports) != want {
				t.Errorf("transition #%d: expected %d reports, got %d", i, want, len(reports))
			}
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		c := &models.Campaign{
			CampaignID:    "C1",
			Areas:         []models.Area{models.NewArea("A1", "", 52.5, 13.4, 100)},
			EventSettings: []models.EventSettings{{Type: models.EventEntry, TimeoutInMinutes: 30}},
		}
		occ := newFakeOccurrences()
		r := newTestResolver([]*models.Message{signaling(t, "M1", c)}, &Policy{Occurrences: occ}, nil)

		first := entry("A1")
		if reports, _ := r.Resolve(context.Background(), first); len(reports) != 1 {
			t.Fatalf("expected first transition to report, got %d", len(reports))
		}

		soon := entry("A1")
		soon.OccurredAt = first.OccurredAt.Add(10 * time.Minute)
		if reports, _ := r.Resolve(context.Background(), soon); len(reports) != 0 {
			t.Errorf("expected transition inside timeout to be filtered, got %d", len(reports))
		}

		later := entry("A1")
		later.OccurredAt = first.OccurredAt.Add(31 * time.Minute)
		if reports, _ := r.Resolve(context.Background(), later); len(reports) != 1 {
			t.Errorf("expected transition after timeout to report, got %d", len(reports))
		}
	})
}

func TestResolve_ParseFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	good := signaling(t, "M2", &models.Campaign{
		CampaignID: "C2",
		Areas:      []models.Area{models.NewArea("A1", "", 52.5, 13.4, 100)},
	})
	broken := &models.Message{MessageID: "M1", InternalData: `{"geo": "not-a-list"}`}
	plain := &models.Message{MessageID: "M3"}

	r := newTestResolver([]*models.Message{broken, plain, good}, nil, nil)
	reports, err := r.Resolve(context.Background(), entry("A1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reports) != 1 || reports[0].SignalingMessageID != "M2" {
		t.Errorf("expected single report for M2, got %+v", reports)
	}
}

func TestResolve_RecordsDuplicates(t *testing.T) {
	t.Parallel()

	area := models.NewArea("A1", "", 52.5, 13.4, 100)
	msgs := []*models.Message{
		signaling(t, "M1", &models.Campaign{CampaignID: "C1", Areas: []models.Area{area}}),
		signaling(t, "M2", &models.Campaign{CampaignID: "C2", Areas: []models.Area{area}}),
	}
	dups := cache.NewDuplicateSuppressor(10, time.Hour)
	r := newTestResolver(msgs, nil, dups)

	reports, err := r.Resolve(context.Background(), entry("A1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for _, rep := range reports {
		if !dups.Contains(rep.MessageID) {
			t.Errorf("client id %s not recorded", rep.MessageID)
		}
	}
}

func TestResolve_EmptyAndErrors(t *testing.T) {
	t.Parallel()

	r := newTestResolver(nil, nil, nil)
	reports, err := r.Resolve(context.Background(), Transition{Event: models.EventEntry})
	if err != nil || reports != nil {
		t.Errorf("expected nil, nil for empty transition, got %v, %v", reports, err)
	}

	boom := errors.New("boom")
	failing := NewResolver(&fakeMessages{err: boom}, nil, nil)
	if _, err := failing.Resolve(context.Background(), entry("A1")); !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
