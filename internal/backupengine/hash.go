// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"bytes"
	"context"
	"crypto/cipher"
	"os"
	"time"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/digest"
	"github.com/tomtom215/strongroom/internal/envelope"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/metrics"
)

// hashFile runs the hashing-pool half of the pipeline for one planned
// file: carrying forward an unread record, detecting an unchanged
// incremental-plus file via a cheap hash-only pass, resolving a dedup hit
// against the history DB, or sealing the file for upload.
func hashFile(ctx context.Context, plan planned, store *backupinfo.Store, aead cipher.AEAD, opts Options) sealedResult {
	if !plan.needsRead {
		rec := *plan.priorRecord
		rec.SourcePath = plan.sourcePath
		return sealedResult{plan: plan, record: rec}
	}

	start := time.Now()

	f, err := os.Open(plan.sourcePath) //nolint:gosec // source roots are operator-supplied
	if err != nil {
		return sealedResult{plan: plan, fail: &backupinfo.FileError{
			Path: plan.sourcePath, Kind: string(errs.KindIO), Err: err.Error(),
		}}
	}
	defer f.Close() //nolint:errcheck

	// incremental-plus: a cheap hash-only pass first, so an unchanged file
	// never pays for envelope sealing or an upload slot. Plain incremental
	// already decided backup vs skip on datesize alone in classify(), so a
	// file reaching here under that type has a real datesize change and
	// goes straight to sealing; no digest pre-check or bitrot comparison.
	var bitrotWarning bool
	plusClassification := opts.RequestedType == backupinfo.BackupIncrementalPlus || opts.RequestedType == backupinfo.BackupIncrementalPlusDedup
	if plusClassification && plan.priorRecord != nil {
		plainDigest, _, hashErr := digest.HashFile(ctx, f)
		if hashErr != nil {
			return sealedResult{plan: plan, fail: &backupinfo.FileError{
				Path: plan.sourcePath, Kind: string(errs.KindIO), Err: hashErr.Error(),
			}}
		}
		if plainDigest == plan.priorRecord.PlaintextDigest {
			rec := *plan.priorRecord
			rec.SourcePath = plan.sourcePath
			rec.Size = plan.size
			rec.ModTimeUTC = plan.modTime
			return sealedResult{plan: plan, record: rec}
		}
		// Content changed but size and mtime didn't: a plain edit would
		// have moved at least one of them, so this is sneaky corruption
		// rather than a normal modification.
		if opts.DetectBitrot && plan.size == plan.priorRecord.Size && plan.modTime.Equal(plan.priorRecord.ModTimeUTC) {
			bitrotWarning = true
		}
		if _, err := f.Seek(0, 0); err != nil {
			return sealedResult{plan: plan, fail: &backupinfo.FileError{
				Path: plan.sourcePath, Kind: string(errs.KindIO), Err: err.Error(),
			}}
		}
	}

	var sealedBuf bytes.Buffer
	var sink digest.Sink
	if opts.Encrypt {
		sink = envelope.NewWriter(&sealedBuf, aead)
	} else {
		sink = digest.NewPassthroughSink(&sealedBuf)
	}

	pipeline := digest.NewPipeline(digest.DefaultChunkSize)
	result, err := pipeline.Run(ctx, f, sink)
	if err != nil {
		return sealedResult{plan: plan, fail: &backupinfo.FileError{
			Path: plan.sourcePath, Kind: string(errs.KindCrypto), Err: err.Error(),
		}}
	}

	metrics.RecordFileHashed(opts.Storage, time.Since(start))

	if opts.RequestedType == backupinfo.BackupIncrementalPlusDedup {
		if dup, dupErr := store.AnyRecordWithDigest(result.PlaintextDigest); dupErr == nil && dup != nil && dup.StoredObjectID != "" {
			metrics.RecordDedupHit(opts.Storage)
			rec := backupinfo.FileRecord{
				SourcePath:       plan.sourcePath,
				NormalizedPath:   plan.normalizedPath,
				Size:             plan.size,
				ModTimeUTC:       plan.modTime,
				PlaintextDigest:  result.PlaintextDigest,
				CiphertextDigest: dup.CiphertextDigest,
				StoredObjectID:   dup.StoredObjectID,
				DedupRef:         dup.NormalizedPath,
				Encrypted:        dup.Encrypted,
				BitrotWarning:    bitrotWarning,
			}
			return sealedResult{plan: plan, record: rec}
		}
	}

	rec := backupinfo.FileRecord{
		SourcePath:       plan.sourcePath,
		NormalizedPath:   plan.normalizedPath,
		Size:             plan.size,
		ModTimeUTC:       plan.modTime,
		PlaintextDigest:  result.PlaintextDigest,
		CiphertextDigest: result.CiphertextDigest,
		Encrypted:        opts.Encrypt,
		BitrotWarning:    bitrotWarning,
	}

	return sealedResult{plan: plan, record: rec, sealed: sealedBuf.Bytes()}
}
