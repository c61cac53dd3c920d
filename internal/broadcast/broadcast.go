// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package broadcast publishes local geofencing notifications on an
// in-process Watermill Go channel.
//
// Three topics are used:
//
//	geofence.area_entered       AreaEntered    synthesized messages ready for display
//	geofence.events_reported    EventsReported reports accepted by the backend
//	geofence.reporting_error    ReportingError a batch could not be delivered
//
// Payloads are JSON. Delivery is best effort: a topic without subscribers
// drops its messages.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

const (
	TopicAreaEntered    = "geofence.area_entered"
	TopicEventsReported = "geofence.events_reported"
	TopicReportingError = "geofence.reporting_error"
)

const metadataCorrelationID = "correlation_id"

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("broadcaster is closed")

// AreaEntered carries the messages synthesized from one successful batch.
type AreaEntered struct {
	Messages []*models.Message `json:"messages"`
}

// EventsReported lists the reports accepted by the backend that belong to
// still active campaigns.
type EventsReported struct {
	Reports             []models.GeoReport `json:"reports"`
	InactiveCampaignIDs []string           `json:"inactiveCampaignIds,omitempty"`
}

// ReportingError describes a batch that was put back on the queue.
type ReportingError struct {
	Error    string    `json:"error"`
	Reports  int       `json:"reports"`
	FailedAt time.Time `json:"failedAt"`
}

// Publisher is what the reporting pipeline needs from a broadcaster.
type Publisher interface {
	Broadcast(ctx context.Context, topic string, payload interface{}) error
}

// Broadcaster fans notifications out to in-process subscribers.
type Broadcaster struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// New creates a broadcaster. buffer is the per-subscriber output buffer.
func New(buffer int64) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
		}, NewLoggerAdapter()),
	}
}

// Broadcast encodes payload as JSON and publishes it on topic. The
// correlation id of ctx, if any, is copied into the message metadata.
func (b *Broadcaster) Broadcast(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelationID, id)
	}

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	logging.Ctx(ctx).Debug().Str("topic", topic).Str("message_uuid", msg.UUID).Msg("Broadcast published")
	return nil
}

// Subscribe returns a channel receiving messages published on topic after
// the call. Each message must be acknowledged before the next one is delivered.
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.pubsub.Subscribe(ctx, topic)
}

// Close stops delivery and closes every subscription channel.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// Decode unmarshals a broadcast payload.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	err := json.Unmarshal(msg.Payload, &v)
	return v, err
}
