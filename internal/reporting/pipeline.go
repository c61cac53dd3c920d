// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package reporting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/geocampaign/internal/backend"
	"github.com/tomtom215/geocampaign/internal/broadcast"
	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/metrics"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/wal"
)

var (
	// ErrQueueClosed is returned when the durable queue has been closed.
	ErrQueueClosed = errors.New("report queue is closed")

	// ErrRegistrationDisabled is returned by Synchronize while push
	// registration is turned off. Queued reports are kept.
	ErrRegistrationDisabled = errors.New("push registration is disabled")

	// ErrHandOff is returned together with a successful result when the
	// batch was delivered but the synthesized messages could not be handed
	// to the sink. The reports are not requeued.
	ErrHandOff = errors.New("synthesized message hand-off failed")
)

// MessageSource lists stored signaling messages.
type MessageSource interface {
	FindAll(ctx context.Context) ([]*models.Message, error)
}

// StatusCache is the part of the campaign status cache the pipeline uses.
type StatusCache interface {
	MergeFromResult(ctx context.Context, result *models.GeoReportingResult) ([]string, error)
	Clear(ctx context.Context) error
}

// RegistrationFlag reports whether push registration is enabled.
type RegistrationFlag interface {
	RegistrationEnabled(ctx context.Context) (bool, error)
}

// MessageSink receives messages synthesized from delivered reports.
type MessageSink interface {
	Receive(ctx context.Context, msgs []*models.Message) error
}

// MessageSinkFunc adapts a function to MessageSink.
type MessageSinkFunc func(ctx context.Context, msgs []*models.Message) error

// Receive calls f.
func (f MessageSinkFunc) Receive(ctx context.Context, msgs []*models.Message) error {
	return f(ctx, msgs)
}

// Deps are the collaborators of a Pipeline. Flags, Broadcaster and Sink
// are optional.
type Deps struct {
	Queue       wal.Queue
	Backend     backend.Reporter
	Messages    MessageSource
	Status      StatusCache
	Flags       RegistrationFlag
	Broadcaster broadcast.Publisher
	Sink        MessageSink
	Retry       *RetryPolicy
}

// Pipeline is the retry reporting pipeline.
type Pipeline struct {
	queue       wal.Queue
	backend     backend.Reporter
	messages    MessageSource
	status      StatusCache
	flags       RegistrationFlag
	broadcaster broadcast.Publisher
	sink        MessageSink
	retry       *RetryPolicy
	log         *logging.GeoLogger

	// syncMu serializes synchronizations.
	syncMu sync.Mutex

	// asyncRunning is the single-flight guard of SynchronizeAsync.
	asyncRunning atomic.Bool
	asyncWG      sync.WaitGroup

	now func() time.Time
}

// NewPipeline creates a pipeline.
func NewPipeline(d Deps) *Pipeline {
	retry := d.Retry
	if retry == nil {
		retry = &RetryPolicy{MaxAttempts: 1}
	}
	return &Pipeline{
		queue:       d.Queue,
		backend:     d.Backend,
		messages:    d.Messages,
		status:      d.Status,
		flags:       d.Flags,
		broadcaster: d.Broadcaster,
		sink:        d.Sink,
		retry:       retry,
		log:         logging.NewGeoLogger("reporting"),
		now:         time.Now,
	}
}

// Report durably enqueues reports and triggers a background
// synchronization. It returns once the reports are persisted.
func (p *Pipeline) Report(ctx context.Context, reports []models.GeoReport) error {
	if len(reports) == 0 {
		return nil
	}
	if err := p.queue.Enqueue(ctx, reports...); err != nil {
		if errors.Is(err, wal.ErrWALClosed) {
			return fmt.Errorf("enqueue %d reports: %w", len(reports), ErrQueueClosed)
		}
		return fmt.Errorf("enqueue %d reports: %w", len(reports), err)
	}
	p.SynchronizeAsync(ctx)
	return nil
}

// SynchronizeAsync starts a background synchronization unless one is
// already running. The run is detached from ctx's cancellation.
func (p *Pipeline) SynchronizeAsync(ctx context.Context) bool {
	if !p.asyncRunning.CompareAndSwap(false, true) {
		return false
	}
	bg := logging.Detach(ctx)
	p.asyncWG.Add(1)
	go func() {
		defer p.asyncWG.Done()
		defer p.asyncRunning.Store(false)
		if _, err := p.Synchronize(bg); err != nil && !errors.Is(err, ErrRegistrationDisabled) {
			logging.Ctx(bg).Warn().Err(err).Msg("Background synchronization failed")
		}
	}()
	return true
}

// Wait blocks until a running background synchronization finishes.
func (p *Pipeline) Wait() {
	p.asyncWG.Wait()
}

// Synchronize submits every queued report in one batch.
//
// It returns (nil, nil) when nothing is queued and (nil,
// ErrRegistrationDisabled) while registration is off. On delivery failure
// the drained reports are restored and the failed result is returned
// together with the error. A delivered batch whose messages could not be
// handed off returns the result together with ErrHandOff.
func (p *Pipeline) Synchronize(ctx context.Context) (*models.GeoReportingResult, error) {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	if p.flags != nil {
		enabled, err := p.flags.RegistrationEnabled(ctx)
		if err != nil {
			return nil, fmt.Errorf("read registration flag: %w", err)
		}
		if !enabled {
			metrics.RecordSync("disabled", 0, 0)
			return nil, ErrRegistrationDisabled
		}
	}

	entries, err := p.queue.Drain(ctx)
	if err != nil {
		if errors.Is(err, wal.ErrWALClosed) {
			return nil, ErrQueueClosed
		}
		return nil, err
	}
	if len(entries) == 0 {
		metrics.RecordSync("empty", 0, 0)
		return nil, nil
	}

	start := p.now()
	reports := wal.Reports(entries)

	signaling, err := p.signalingMessages(ctx)
	if err != nil {
		return p.fail(ctx, entries, start, err)
	}

	var resp *backend.ReportResponse
	_, err = p.retry.Do(ctx, func(ctx context.Context) error {
		var submitErr error
		resp, submitErr = p.backend.ReportEvents(ctx, p.buildRequest(reports, signaling))
		return submitErr
	})
	if err != nil {
		return p.fail(ctx, entries, start, err)
	}

	result := resp.Result()
	return result, p.deliver(ctx, reports, signaling, result, start)
}

// Reset clears the queue and the status cache.
func (p *Pipeline) Reset(ctx context.Context) error {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	n, err := p.queue.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	if p.status != nil {
		if err := p.status.Clear(ctx); err != nil {
			return fmt.Errorf("clear status cache: %w", err)
		}
	}
	logging.Ctx(ctx).Info().Int("dropped_reports", n).Msg("Reporting state reset")
	return nil
}

func (p *Pipeline) signalingMessages(ctx context.Context) (map[string]*models.Message, error) {
	msgs, err := p.messages.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load signaling messages: %w", err)
	}
	byID := make(map[string]*models.Message, len(msgs))
	for _, m := range msgs {
		byID[m.MessageID] = m
	}
	return byID, nil
}

// buildRequest creates the batch: one payload per distinct signaling
// message, in first-seen order, and one event report per GeoReport.
func (p *Pipeline) buildRequest(reports []models.GeoReport, signaling map[string]*models.Message) *backend.ReportRequest {
	now := p.now()
	req := &backend.ReportRequest{
		MessagePayloads: make([]models.MessagePayload, 0, len(reports)),
		EventReports:    make([]backend.EventReport, 0, len(reports)),
	}

	seen := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		req.EventReports = append(req.EventReports, backend.NewEventReport(r, now))

		if _, ok := seen[r.SignalingMessageID]; ok {
			continue
		}
		seen[r.SignalingMessageID] = struct{}{}

		if msg, ok := signaling[r.SignalingMessageID]; ok {
			req.MessagePayloads = append(req.MessagePayloads, msg.Payload())
		} else {
			req.MessagePayloads = append(req.MessagePayloads, models.MessagePayload{MessageID: r.SignalingMessageID})
		}
	}
	return req
}

func (p *Pipeline) fail(ctx context.Context, entries []*wal.Entry, start time.Time, cause error) (*models.GeoReportingResult, error) {
	// The drained set must go back even when ctx was canceled.
	restoreCtx := logging.Detach(ctx)
	if err := p.queue.Restore(restoreCtx, entries, cause); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("reports", len(entries)).Msg("Failed to restore reports after delivery failure")
		cause = errors.Join(cause, err)
	}

	metrics.RecordSync("failure", len(entries), p.now().Sub(start))
	p.log.LogBatchRequeued(ctx, len(entries), cause)
	p.publish(restoreCtx, broadcast.TopicReportingError, broadcast.ReportingError{
		Error:    cause.Error(),
		Reports:  len(entries),
		FailedAt: p.now().UTC(),
	})

	return &models.GeoReportingResult{Err: cause}, fmt.Errorf("synchronize: %w", cause)
}

func (p *Pipeline) deliver(ctx context.Context, reports []models.GeoReport, signaling map[string]*models.Message, result *models.GeoReportingResult, start time.Time) error {
	inactive := append([]string(nil), result.FinishedCampaignIDs...)
	inactive = append(inactive, result.SuspendedCampaignIDs...)
	if p.status != nil {
		merged, err := p.status.MergeFromResult(ctx, result)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Failed to persist campaign status")
		} else {
			inactive = merged
		}
	}
	metrics.InactiveCampaigns.Set(float64(len(inactive)))

	inactiveSet := make(map[string]struct{}, len(inactive))
	for _, id := range inactive {
		inactiveSet[id] = struct{}{}
	}
	accepted := make([]models.GeoReport, 0, len(reports))
	for _, r := range reports {
		if _, ok := inactiveSet[r.CampaignID]; !ok {
			accepted = append(accepted, r)
		}
	}

	synthesized := p.synthesize(accepted, signaling, result)
	metrics.MessagesSynthesized.Add(float64(len(synthesized)))

	if len(synthesized) > 0 {
		p.publish(ctx, broadcast.TopicAreaEntered, broadcast.AreaEntered{Messages: synthesized})
	}
	p.publish(ctx, broadcast.TopicEventsReported, broadcast.EventsReported{
		Reports:             accepted,
		InactiveCampaignIDs: inactive,
	})

	metrics.RecordSync("success", len(reports), p.now().Sub(start))
	p.log.LogBatchSubmitted(ctx, len(reports), len(synthesized), p.now().Sub(start))

	if p.sink != nil && len(synthesized) > 0 {
		if err := p.sink.Receive(ctx, synthesized); err != nil {
			return fmt.Errorf("%w: %d messages: %w", ErrHandOff, len(synthesized), err)
		}
	}
	return nil
}

// synthesize builds the message shown for each delivered report.
func (p *Pipeline) synthesize(reports []models.GeoReport, signaling map[string]*models.Message, result *models.GeoReportingResult) []*models.Message {
	now := p.now().UTC()
	out := make([]*models.Message, 0, len(reports))
	for _, r := range reports {
		source, ok := signaling[r.SignalingMessageID]
		if !ok {
			source = &models.Message{MessageID: r.SignalingMessageID}
		}

		campaign, err := source.Campaign()
		if err != nil || campaign == nil {
			campaign = &models.Campaign{CampaignID: r.CampaignID}
		}

		internal, err := source.InternalDataWithCampaign(campaign.WithSingleArea(r.Area))
		if err != nil {
			logging.Warn().Err(err).Str("message_id", source.MessageID).Msg("Synthesized message without campaign data")
			internal = ""
		}

		out = append(out, &models.Message{
			MessageID:     result.ServerMessageID(r.MessageID),
			Title:         source.Title,
			Body:          source.Body,
			Sound:         source.Sound,
			Icon:          source.Icon,
			Category:      source.Category,
			Silent:        false,
			CustomPayload: source.CustomPayload,
			InternalData:  internal,
			ReceivedAt:    now,
		})
	}
	return out
}

func (p *Pipeline) publish(ctx context.Context, topic string, payload interface{}) {
	if p.broadcaster == nil {
		return
	}
	if err := p.broadcaster.Broadcast(ctx, topic, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Broadcast failed")
	}
}
