// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

var _ watermill.LoggerAdapter = (*LoggerAdapter)(nil)

func TestBroadcastDeliversToSubscriber(t *testing.T) {
	t.Parallel()
	b := New(8)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := b.Subscribe(ctx, TopicAreaEntered)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	pubCtx := logging.ContextWithCorrelationID(ctx, "corr-1")
	payload := AreaEntered{Messages: []*models.Message{{MessageID: "srv-123", Title: "Hi"}}}
	if err := b.Broadcast(pubCtx, TopicAreaEntered, payload); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	select {
	case msg := <-sub:
		msg.Ack()
		got, err := Decode[AreaEntered](msg)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(got.Messages) != 1 || got.Messages[0].MessageID != "srv-123" {
			t.Errorf("unexpected payload %+v", got)
		}
		if msg.Metadata.Get(metadataCorrelationID) != "corr-1" {
			t.Errorf("expected correlation id metadata, got %q", msg.Metadata.Get(metadataCorrelationID))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	t.Parallel()
	b := New(0)
	defer b.Close()

	err := b.Broadcast(context.Background(), TopicReportingError, ReportingError{Error: "boom", Reports: 2})
	if err != nil {
		t.Errorf("publishing without subscribers should succeed, got %v", err)
	}
}

func TestBroadcastAfterClose(t *testing.T) {
	t.Parallel()
	b := New(1)
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	if err := b.Broadcast(context.Background(), TopicEventsReported, EventsReported{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := b.Subscribe(context.Background(), TopicEventsReported); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
