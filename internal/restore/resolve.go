// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package restore

import (
	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/errs"
)

// maxDedupHops bounds dedup_ref chain resolution so a corrupt or
// accidentally cyclic history DB fails fast instead of looping forever.
const maxDedupHops = 8

// resolveStoredObject follows rec's dedup_ref chain (if any) to the
// FileRecord that actually holds a StoredObjectID, per §4.7's "resolve
// dedup_ref records to their referenced FileRecord."
func (e *Engine) resolveStoredObject(rec backupinfo.FileRecord) (backupinfo.FileRecord, error) {
	current := rec
	for hop := 0; current.DedupRef != "" && current.StoredObjectID == ""; hop++ {
		if hop >= maxDedupHops {
			return backupinfo.FileRecord{}, errs.New(errs.KindValidation, "restore.resolveStoredObject", errs.ErrUnexpectedState).WithPath(rec.SourcePath)
		}
		next, err := e.Store.LastRecordForPath(current.DedupRef)
		if err != nil {
			return backupinfo.FileRecord{}, err
		}
		if next == nil {
			return backupinfo.FileRecord{}, errs.New(errs.KindValidation, "restore.resolveStoredObject", errs.ErrNotFound).WithPath(current.DedupRef)
		}
		current = *next
	}
	if current.StoredObjectID == "" {
		return backupinfo.FileRecord{}, errs.New(errs.KindValidation, "restore.resolveStoredObject", errs.ErrNotFound).WithPath(rec.SourcePath)
	}
	return current, nil
}
