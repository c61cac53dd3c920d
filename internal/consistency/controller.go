// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package consistency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/metrics"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/monitor"
)

// Recovery kinds as labelled in metrics.
const (
	recoveryFull   = "full"
	recoveryExpire = "expire"
)

// ErrPackageMismatch is returned by Submit for data-cleared events of
// another package.
var ErrPackageMismatch = errors.New("data cleared for another package")

// MessageSource lists stored signaling messages.
type MessageSource interface {
	FindAll(ctx context.Context) ([]*models.Message, error)
}

// Flags persists whether every eligible area is currently monitored.
type Flags interface {
	SetAllMonitored(ctx context.Context, v bool) error
}

// Controller is the consistency recovery controller.
type Controller struct {
	monitor     monitor.Monitor
	messages    MessageSource
	flags       Flags
	packageName string
	log         *logging.GeoLogger

	mu            sync.Mutex
	pendingFull   EventKind
	pendingExpire bool
	wake          chan struct{}

	// runMu serializes recovery passes and the message-arrival path.
	runMu sync.Mutex

	timerMu     sync.Mutex
	startTimer  *time.Timer
	expiryTimer *time.Timer

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewController creates a controller. packageName identifies the monitoring
// capability in data-cleared events; empty accepts any package.
func NewController(m monitor.Monitor, messages MessageSource, flags Flags, packageName string) *Controller {
	return &Controller{
		monitor:     m,
		messages:    messages,
		flags:       flags,
		packageName: packageName,
		log:         logging.NewGeoLogger("consistency"),
		wake:        make(chan struct{}, 1),
		now:         time.Now,
		afterFunc:   time.AfterFunc,
	}
}

// Submit queues ev for the worker and returns immediately.
func (c *Controller) Submit(ev Event) error {
	if _, ok := kindNames[ev.Kind]; !ok {
		metrics.SystemEventsReceived.WithLabelValues("unknown", "dropped").Inc()
		return fmt.Errorf("%w: %d", ErrUnknownEventKind, int(ev.Kind))
	}
	if ev.Kind == EventMonitorDataCleared && c.packageName != "" && ev.Package != c.packageName {
		metrics.SystemEventsReceived.WithLabelValues(ev.Kind.String(), "ignored").Inc()
		return fmt.Errorf("%w: %q", ErrPackageMismatch, ev.Package)
	}

	c.mu.Lock()
	if ev.Kind.FullRecovery() {
		if c.pendingFull == 0 {
			c.pendingFull = ev.Kind
		}
	} else {
		c.pendingExpire = true
	}
	c.mu.Unlock()

	metrics.SystemEventsReceived.WithLabelValues(ev.Kind.String(), "queued").Inc()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// Serve runs the worker until ctx is done. It implements suture.Service.
func (c *Controller) Serve(ctx context.Context) error {
	defer c.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			c.drain(ctx)
		}
	}
}

// String implements fmt.Stringer for suture.
func (c *Controller) String() string {
	return "consistency-controller"
}

// drain processes everything pending at the time of the call.
func (c *Controller) drain(ctx context.Context) {
	c.mu.Lock()
	full, expire := c.pendingFull, c.pendingExpire
	c.pendingFull, c.pendingExpire = 0, false
	c.mu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	switch {
	case full != 0:
		if err := c.Recover(ctx, full); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("kind", full.String()).Msg("Full recovery failed")
		}
	case expire:
		if err := c.ExpirePass(ctx); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Expire pass failed")
		}
	}
}

// Recover unregisters everything, registers every valid area of every
// eligible campaign and reschedules both alarms. kind is recorded in
// metrics and logs only. The all-monitored flag is true only after a
// complete pass.
func (c *Controller) Recover(ctx context.Context, kind EventKind) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	start := c.now()
	if err := c.flags.SetAllMonitored(ctx, false); err != nil {
		return fmt.Errorf("clear monitored flag: %w", err)
	}

	if !c.monitor.Available() {
		metrics.RecordRecovery(recoveryFull, "skipped", c.now().Sub(start))
		logging.Ctx(ctx).Warn().Str("kind", kind.String()).Msg("Monitoring capability unavailable, skipping recovery")
		return nil
	}

	msgs, err := c.messages.FindAll(ctx)
	if err != nil {
		metrics.RecordRecovery(recoveryFull, "failure", c.now().Sub(start))
		return fmt.Errorf("load messages: %w", err)
	}

	if err := c.monitor.UnregisterAll(ctx); err != nil {
		metrics.RecordRecovery(recoveryFull, "failure", c.now().Sub(start))
		return fmt.Errorf("unregister all: %w", err)
	}

	plan := planFor(msgs, c.now())
	registered, err := c.register(ctx, plan.eligible, areaExpiries(plan.eligible))
	if err != nil {
		metrics.RecordRecovery(recoveryFull, "failure", c.now().Sub(start))
		return err
	}
	c.schedule(plan)

	if err := c.flags.SetAllMonitored(ctx, true); err != nil {
		return fmt.Errorf("set monitored flag: %w", err)
	}

	metrics.RecordRecovery(recoveryFull, "success", c.now().Sub(start))
	c.log.LogRecovery(ctx, kind.String(), len(plan.eligible), registered)
	return nil
}

// ExpirePass unregisters the areas of expired campaigns that no eligible
// campaign still uses, then reschedules the expiry alarm.
func (c *Controller) ExpirePass(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	start := c.now()
	msgs, err := c.messages.FindAll(ctx)
	if err != nil {
		metrics.RecordRecovery(recoveryExpire, "failure", c.now().Sub(start))
		return fmt.Errorf("load messages: %w", err)
	}

	plan := planFor(msgs, c.now())
	if len(plan.expiredAreaIDs) > 0 {
		if err := c.monitor.Unregister(ctx, plan.expiredAreaIDs); err != nil {
			metrics.RecordRecovery(recoveryExpire, "failure", c.now().Sub(start))
			return fmt.Errorf("unregister expired areas: %w", err)
		}
	}
	c.scheduleExpiry(plan.nextExpiry)

	metrics.RecordRecovery(recoveryExpire, "success", c.now().Sub(start))
	c.log.LogRecovery(ctx, EventExpireAlarm.String(), len(plan.eligible), len(plan.expiredAreaIDs))
	return nil
}

// OnMessageStored registers the areas of a newly stored signaling message
// when its campaign is eligible, and reschedules the alarms.
func (c *Controller) OnMessageStored(ctx context.Context, msg *models.Message) error {
	campaign, err := msg.Campaign()
	if err != nil {
		return fmt.Errorf("decode campaign: %w", err)
	}
	if campaign == nil || len(campaign.Areas) == 0 {
		return nil
	}

	c.runMu.Lock()
	defer c.runMu.Unlock()

	msgs, err := c.messages.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	now := c.now()
	plan := planFor(msgs, now)

	if campaign.IsEligibleForMonitoring(now) {
		// Shared area ids keep the latest expiry of every live campaign using them.
		expiries := areaExpiries(append([]*models.Campaign{campaign}, plan.eligible...))
		if !c.monitor.Available() {
			logging.Ctx(ctx).Warn().Str("campaign_id", campaign.CampaignID).Msg("Monitoring capability unavailable, campaign not registered")
		} else if _, err := c.register(ctx, []*models.Campaign{campaign}, expiries); err != nil {
			return err
		}
	}

	c.schedule(plan)
	return nil
}

// register registers the valid areas of campaigns, each area id once, with
// the expiry found in expiries. A capacity overflow is logged and stops
// registration without failing.
func (c *Controller) register(ctx context.Context, campaigns []*models.Campaign, expiries map[string]time.Time) (int, error) {
	seen := make(map[string]struct{})
	var (
		areas []models.Area
		ends  []time.Time
	)
	for _, campaign := range campaigns {
		for _, a := range campaign.ValidAreas() {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			areas = append(areas, a)
			ends = append(ends, expiries[a.ID])
		}
	}

	registered := 0
	for i := 0; i < len(areas); {
		j := i + 1
		for j < len(areas) && ends[j].Equal(ends[i]) {
			j++
		}
		err := c.monitor.Register(ctx, areas[i:j], ends[i])
		switch {
		case err == nil:
			registered += j - i
		case errors.Is(err, monitor.ErrCapacityExceeded):
			logging.Ctx(ctx).Warn().Err(err).Int("registered", registered).Msg("Region capacity reached, remaining areas not monitored")
			return registered, nil
		default:
			return registered, fmt.Errorf("register areas: %w", err)
		}
		i = j
	}
	return registered, nil
}

// areaExpiries maps every valid area id to the latest expiry among the
// campaigns using it. A zero time never expires and wins over any date.
func areaExpiries(campaigns []*models.Campaign) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, campaign := range campaigns {
		expiry, _ := campaign.ExpiresAt()
		for _, a := range campaign.ValidAreas() {
			cur, ok := out[a.ID]
			switch {
			case !ok:
				out[a.ID] = expiry
			case cur.IsZero():
			case expiry.IsZero() || expiry.After(cur):
				out[a.ID] = expiry
			}
		}
	}
	return out
}

func (c *Controller) schedule(p plan) {
	c.scheduleStart(p.nextStart)
	c.scheduleExpiry(p.nextExpiry)
}

func (c *Controller) scheduleStart(at time.Time) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.startTimer = c.rearm(c.startTimer, at, EventRefreshAlarm)
}

func (c *Controller) scheduleExpiry(at time.Time) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.expiryTimer = c.rearm(c.expiryTimer, at, EventExpireAlarm)
}

// rearm replaces t with a timer submitting kind at at. A zero at only cancels.
func (c *Controller) rearm(t *time.Timer, at time.Time, kind EventKind) *time.Timer {
	if t != nil {
		t.Stop()
	}
	if at.IsZero() {
		return nil
	}
	d := at.Sub(c.now())
	if d < 0 {
		d = 0
	}
	logging.Debug().Str("kind", kind.String()).Time("at", at).Msg("Alarm scheduled")
	return c.afterFunc(d, func() {
		_ = c.Submit(Event{Kind: kind})
	})
}

func (c *Controller) stopTimers() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.startTimer != nil {
		c.startTimer.Stop()
		c.startTimer = nil
	}
	if c.expiryTimer != nil {
		c.expiryTimer.Stop()
		c.expiryTimer = nil
	}
}
