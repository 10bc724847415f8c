// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"github.com/tomtom215/strongroom/internal/backupinfo"
)

// classify decides, for one discovered file against the requested
// BackupType, whether it needs to be read at all this run. Full backups
// always read every file. Incremental backups carry a file's prior record
// forward unread when its size and modification time are unchanged
// (datesize classification). Incremental-plus and incremental-plus-dedup
// always re-read and re-hash every file, because a datesize match cannot
// rule out a silent (sneaky) corruption or an edit that left the
// modification time untouched; the digest comparison against the prior
// record happens after hashing, in the hashing worker, not here.
func classify(d discovered, prior *backupinfo.FileRecord, backupType backupinfo.BackupType) planned {
	p := planned{discovered: d, priorRecord: prior}

	switch backupType {
	case backupinfo.BackupFull:
		p.needsRead = true
	case backupinfo.BackupIncremental:
		p.needsRead = prior == nil || !sameDatesize(d, *prior)
	case backupinfo.BackupIncrementalPlus, backupinfo.BackupIncrementalPlusDedup:
		p.needsRead = true
	default:
		p.needsRead = true
	}

	return p
}

func sameDatesize(d discovered, rec backupinfo.FileRecord) bool {
	return d.size == rec.Size && d.modTime.Equal(rec.ModTimeUTC)
}
