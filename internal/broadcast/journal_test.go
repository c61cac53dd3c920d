// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package broadcast

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Not parallel: swaps the global logger.
func TestJournalLogsEveryTopic(t *testing.T) {
	out := &syncBuffer{}
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(out))
	t.Cleanup(func() { logging.SetLogger(prev) })

	b := New(8)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewJournal(b).Serve(ctx) }()

	publish := []struct {
		topic   string
		payload interface{}
		want    string
	}{
		{TopicAreaEntered, AreaEntered{Messages: []*models.Message{{MessageID: "srv-1"}}}, "Area entered"},
		{TopicEventsReported, EventsReported{Reports: []models.GeoReport{{CampaignID: "C1"}}}, "Events reported"},
		{TopicReportingError, ReportingError{Error: "boom", Reports: 2}, "Reporting failed"},
	}

	// Subscriptions are set up asynchronously; publish until each line shows up.
	deadline := time.Now().Add(5 * time.Second)
	for _, p := range publish {
		for !strings.Contains(out.String(), p.want) {
			if time.Now().After(deadline) {
				t.Fatalf("journal never logged %q; output: %s", p.want, out.String())
			}
			if err := b.Broadcast(context.Background(), p.topic, p.payload); err != nil {
				t.Fatalf("Broadcast: %v", err)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("journal did not stop")
	}
}

func TestJournalAfterClose(t *testing.T) {
	t.Parallel()
	b := New(1)
	_ = b.Close()
	if err := NewJournal(b).Serve(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Serve() = %v, want ErrClosed", err)
	}
}
