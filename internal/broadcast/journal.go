// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package broadcast

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/geocampaign/internal/logging"
)

// Journal subscribes to every topic and writes one log line per
// notification. It runs as a supervised service.
type Journal struct {
	b *Broadcaster
}

// NewJournal creates a journal over b.
func NewJournal(b *Broadcaster) *Journal {
	return &Journal{b: b}
}

// Serve implements suture.Service.
func (j *Journal) Serve(ctx context.Context) error {
	topics := []string{TopicAreaEntered, TopicEventsReported, TopicReportingError}

	var wg sync.WaitGroup
	for _, topic := range topics {
		ch, err := j.b.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(topic string, ch <-chan *message.Message) {
			defer wg.Done()
			for msg := range ch {
				j.record(topic, msg)
				msg.Ack()
			}
		}(topic, ch)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (j *Journal) String() string {
	return "broadcast-journal"
}

func (j *Journal) record(topic string, msg *message.Message) {
	ev := logging.Info().
		Str("topic", topic).
		Str("correlation_id", msg.Metadata.Get(metadataCorrelationID))

	switch topic {
	case TopicAreaEntered:
		p, err := Decode[AreaEntered](msg)
		if err != nil {
			logging.Warn().Err(err).Str("topic", topic).Msg("Undecodable broadcast")
			return
		}
		ev.Int("messages", len(p.Messages)).Msg("Area entered")
	case TopicEventsReported:
		p, err := Decode[EventsReported](msg)
		if err != nil {
			logging.Warn().Err(err).Str("topic", topic).Msg("Undecodable broadcast")
			return
		}
		ev.Int("reports", len(p.Reports)).Strs("inactive_campaigns", p.InactiveCampaignIDs).Msg("Events reported")
	case TopicReportingError:
		p, err := Decode[ReportingError](msg)
		if err != nil {
			logging.Warn().Err(err).Str("topic", topic).Msg("Undecodable broadcast")
			return
		}
		ev.Int("reports", p.Reports).Str("error", p.Error).Msg("Reporting failed")
	}
}
