// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package restore

import (
	"context"
	"io"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/envelope"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/storage"
)

// fetchAndDecrypt resolves rec's stored object (following a dedup_ref
// chain if needed), fetches the sealed bytes from the provider, and opens
// the envelope with rec's own recorded plaintext digest bound as AAD: a
// successful open means the stored ciphertext still decrypts to exactly
// what was recorded at backup time, detecting silent corruption of the
// stored object itself.
func (e *Engine) fetchAndDecrypt(ctx context.Context, rec backupinfo.FileRecord) ([]byte, error) {
	source, err := e.resolveStoredObject(rec)
	if err != nil {
		return nil, err
	}

	rc, err := e.Provider.GetObject(ctx, e.Container, storage.ObjectID(source.StoredObjectID))
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, errs.New(errs.KindIO, "restore.fetchAndDecrypt", err).WithPath(rec.SourcePath)
	}

	if !rec.Encrypted {
		return sealed, nil
	}

	plaintext, err := envelope.OpenWithAAD(e.AEAD, sealed, rec.PlaintextDigest)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
