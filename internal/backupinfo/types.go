// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package backupinfo implements the backup-info store (C5): the
// per-storage-definition history database, the per-backup manifest
// format, and the atomic commit protocol that lets incremental,
// incremental-plus, and deduplication decisions be made safely across
// process restarts. Generalized from internal/backup/manager.go's
// MetadataStore persistence.
package backupinfo

import "time"

// BackupType matches the classification table of §4.6.
type BackupType string

const (
	BackupFull                 BackupType = "full"
	BackupIncremental          BackupType = "incremental"
	BackupIncrementalPlus      BackupType = "incremental-plus"
	BackupIncrementalPlusDedup BackupType = "incremental-plus-dedup"
)

// SchemaVersion is carried by every on-disk document per DESIGN NOTES §9.
const SchemaVersion = 1

// FileRecord is one entry describing a source file inside a SpecificBackup.
type FileRecord struct {
	SourcePath       string    `json:"source_path"`
	NormalizedPath   string    `json:"normalized_path"`
	Size             int64     `json:"size"`
	ModTimeUTC       time.Time `json:"mod_time_utc"`
	PlaintextDigest  [32]byte  `json:"plaintext_digest"`
	CiphertextDigest [32]byte  `json:"ciphertext_digest"`
	StoredObjectID   string    `json:"stored_object_id,omitempty"`
	DedupRef         string    `json:"dedup_ref,omitempty"` // normalized path of the referenced FileRecord, empty if not a dedup reference
	Encrypted        bool      `json:"encrypted"`
	IV               []byte    `json:"iv,omitempty"`
	BitrotWarning    bool      `json:"bitrot_warning,omitempty"`
}

// FileError is a per-file error accumulated on a SpecificBackup; it never
// aborts the overall run (§7).
type FileError struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Err  string `json:"error"`
}

// SpecificBackup is one committed snapshot.
type SpecificBackup struct {
	SchemaVersion int          `json:"schema_version"`
	Label         string       `json:"label"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Type          BackupType   `json:"type"`
	SourceRoots   []string     `json:"source_roots"`
	Files         []FileRecord `json:"files"`
	Errors        []FileError  `json:"errors"`
}

// HistoryDB is the merged index of every SpecificBackup ever committed to
// one storage definition.
type HistoryDB struct {
	SchemaVersion int              `json:"schema_version"`
	Storage       string           `json:"storage"`
	Backups       []SpecificBackup `json:"backups"`
}
