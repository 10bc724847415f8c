// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"bytes"
	"context"
	"encoding/hex"
	"time"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/metrics"
	"github.com/tomtom215/strongroom/internal/storage"
)

// objectID derives the content-addressed object identifier from a
// ciphertext digest per §6's `<digest-prefix>/<ciphertext-digest>` layout,
// sharding objects across a two-character hex prefix so no single
// provider-side directory accumulates every object in a large backup.
func objectID(ciphertextDigest [32]byte) storage.ObjectID {
	hexDigest := hex.EncodeToString(ciphertextDigest[:])
	return storage.ObjectID(hexDigest[:2] + "/" + hexDigest)
}

// uploadResult finalizes a sealed file: computes its object id, PUTs it to
// the provider, and stamps the result onto the FileRecord. Dedup hits and
// carried-forward records (sealed == nil) are returned unchanged.
func uploadResult(ctx context.Context, res sealedResult, container storage.Container, provider storage.Provider, opts Options) sealedResult {
	if res.fail != nil || res.sealed == nil {
		return res
	}

	start := time.Now()

	id := objectID(res.record.CiphertextDigest)
	res.record.StoredObjectID = string(id)

	if err := provider.PutObject(ctx, container, id, bytes.NewReader(res.sealed), int64(len(res.sealed))); err != nil {
		metrics.RecordFileError(opts.Storage, string(errs.KindProvider))
		return sealedResult{plan: res.plan, fail: &backupinfo.FileError{
			Path: res.plan.sourcePath, Kind: string(errs.KindProvider), Err: err.Error(),
		}}
	}

	metrics.RecordFileUploaded(opts.Storage, time.Since(start), int64(len(res.sealed)))
	res.sealed = nil
	return res
}
