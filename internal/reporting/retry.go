// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package reporting

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tomtom215/geocampaign/internal/backend"
	"github.com/tomtom215/geocampaign/internal/config"
	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/metrics"
)

// RetryPolicy bounds the attempts made to submit one batch.
type RetryPolicy struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64

	// Retryable decides whether an error is worth another attempt.
	// Defaults to backend.IsRetryable.
	Retryable func(error) bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRetryPolicy builds a policy from configuration, filling in defaults
// for zero values.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	p := &RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialDelay:   cfg.InitialDelay,
		MaxDelay:       cfg.MaxDelay,
		Multiplier:     cfg.Multiplier,
		JitterFraction: 0.1,
		Retryable:      backend.IsRetryable,
		//nolint:gosec // G404: jitter only
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

// Backoff returns the wait before attempt number attempt+1 (attempt is 0-based).
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	if p.JitterFraction > 0 && p.rng != nil {
		p.rngMu.Lock()
		jitter := backoff * p.JitterFraction * (p.rng.Float64()*2 - 1)
		p.rngMu.Unlock()
		backoff += jitter
	}
	return time.Duration(backoff)
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done. It returns the number of attempts made.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = backend.IsRetryable
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt, err
		}

		err = fn(ctx)
		if err == nil {
			metrics.SyncAttempts.WithLabelValues("success").Inc()
			return attempt + 1, nil
		}
		if !retryable(err) {
			metrics.SyncAttempts.WithLabelValues("exhausted").Inc()
			return attempt + 1, err
		}

		if attempt < p.MaxAttempts-1 {
			metrics.SyncAttempts.WithLabelValues("retry").Inc()
			delay := p.Backoff(attempt)
			logging.Ctx(ctx).Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("max_attempts", p.MaxAttempts).
				Dur("delay", delay).
				Msg("Report submission failed, retrying")

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return attempt + 1, err
			}
		}
	}

	metrics.SyncAttempts.WithLabelValues("exhausted").Inc()
	return p.MaxAttempts, fmt.Errorf("max retry attempts reached: %w", err)
}
