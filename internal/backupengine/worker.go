// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"context"
	"crypto/cipher"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/metrics"
	"github.com/tomtom215/strongroom/internal/storage"
)

// hashingWorker is a suture.Service: it pulls planned files off in,
// hashes/seals them, and routes the result either straight to done
// (carried-forward records, dedup hits, failures — nothing left to
// upload) or to upload (sealed bytes awaiting a provider PUT). It holds
// sem until the file's result reaches done, bounding how many sealed
// objects may sit in memory awaiting an upload slot.
type hashingWorker struct {
	in     <-chan planned
	upload chan<- sealedResult
	done   chan<- sealedResult
	store  *backupinfo.Store
	aead   cipher.AEAD
	opts   Options
	sem    *semaphore.Weighted
}

func (w *hashingWorker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case plan, ok := <-w.in:
			if !ok {
				return nil
			}
			if err := w.sem.Acquire(ctx, 1); err != nil {
				return ctx.Err()
			}

			metrics.HashingPoolInFlight.Inc()
			res := hashFile(ctx, plan, w.store, w.aead, w.opts)
			metrics.HashingPoolInFlight.Dec()

			out := w.done
			if res.fail == nil && res.sealed != nil {
				out = w.upload
			} else {
				w.sem.Release(1)
			}

			select {
			case out <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *hashingWorker) String() string { return "hashing-worker" }

// uploadWorker is a suture.Service: it pulls sealed objects off in, PUTs
// them to the provider, and forwards the finalized result to done,
// releasing sem for the hashing worker's in-flight budget. limiter, when
// non-nil, is shared by every upload worker and caps how many new uploads
// the whole pool starts per second, independent of how fast the provider
// responds.
type uploadWorker struct {
	in        <-chan sealedResult
	done      chan<- sealedResult
	container storage.Container
	provider  storage.Provider
	opts      Options
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
}

func (w *uploadWorker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-w.in:
			if !ok {
				return nil
			}

			if w.limiter != nil {
				if err := w.limiter.Wait(ctx); err != nil {
					w.sem.Release(1)
					return ctx.Err()
				}
			}

			metrics.UploadPoolInFlight.Inc()
			finalized := uploadResult(ctx, res, w.container, w.provider, w.opts)
			metrics.UploadPoolInFlight.Dec()
			w.sem.Release(1)

			select {
			case w.done <- finalized:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *uploadWorker) String() string { return "upload-worker" }
