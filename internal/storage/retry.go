// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// RetryConfig governs provider-call retry; each retry reruns the whole
// call. Unbounded by default per Open Questions §9 ("retries forever");
// MaxElapsed lets an operator opt into a cap via the max_retry_elapsed
// runtime setting.
type RetryConfig struct {
	MaxElapsed time.Duration // 0 = unbounded
}

// newBackoff builds an exponential-backoff-with-jitter policy matching the
// §4.3 retry policy: infinite by default, optionally bounded.
func newBackoff(cfg RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.MaxElapsed // zero value means unbounded in cenkalti/backoff
	return b
}

// breakerFor wraps a named remote operation with a circuit breaker that
// opens after five consecutive failures. retryPart keeps retrying while
// the breaker is open, under the same backoff, so transient failures keep
// retrying through the breaker's half-open probing; permanent failures
// are never retried.
func breakerFor(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// retryPart runs op under exponential backoff with jitter, retrying only
// transient provider failures per the §4.3 category split; permanent
// categories (auth, not-found-on-commit, checksum mismatch) fail
// immediately without consuming retry budget.
func retryPart(ctx context.Context, cfg RetryConfig, breaker *gobreaker.CircuitBreaker[any], op func(ctx context.Context) error) error {
	log := logging.WithComponent("storage.retry")

	policy := backoff.WithContext(newBackoff(cfg), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		_, err := breaker.Execute(func() (any, error) {
			return nil, op(ctx)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) {
			return err // breaker open: retried under backoff until its half-open probe
		}

		if !errs.IsRetryable(err) {
			return backoff.Permanent(err)
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("retrying transient provider error")
		return err
	}, policy)
}
