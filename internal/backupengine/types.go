// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package backupengine implements the backup engine (C6): discover,
// classify, hash, (optionally dedup), seal, and upload, orchestrated
// across a two-tier worker pool — a CPU-bound hashing pool and an
// I/O-bound upload pool — supervised by internal/supervisor and bounded
// by golang.org/x/sync/semaphore for backpressure between the two tiers.
//
// Generalized from internal/backup/manager.go's single-goroutine backup
// orchestration (discover -> archive -> write metadata) onto the
// concurrent, provider-agnostic pipeline required by SPEC_FULL.md §4.6.
package backupengine

import (
	"time"

	"github.com/tomtom215/strongroom/internal/backupinfo"
)

// Options configures one Run.
type Options struct {
	Storage       string
	SourceRoots   []string
	ExcludeGlobs  []string
	Label         string
	RequestedType backupinfo.BackupType // BackupFull forces a full run; empty lets the engine pick

	HashingWorkers int // default DefaultHashingWorkers
	UploadWorkers  int // default DefaultUploadWorkers

	// UploadRatePerSecond caps new upload starts per second across the
	// whole upload pool, independent of UploadWorkers, so a fast provider
	// doesn't exceed an operator-configured connection budget even when
	// every upload completes quickly. Zero disables the limiter.
	UploadRatePerSecond float64

	// Encrypt disables the crypto envelope when false; cmd/strongroom sets
	// it from the storage definition's EncryptionEnabled flag (false for a
	// definition created with --no-encrypt).
	Encrypt bool

	// DetectBitrot enables the incremental-plus sneaky-corruption check:
	// a file whose size and modification time are unchanged from its
	// prior record but whose content digest differs is flagged
	// BitrotWarning rather than silently treated as a normal edit. False
	// when --no-detect-bitrot is passed.
	DetectBitrot bool
}

const (
	DefaultHashingWorkers = 4
	DefaultUploadWorkers  = 4
)

// discovered is one filesystem entry found during the discover phase,
// before any classification decision has been made.
type discovered struct {
	sourcePath     string
	normalizedPath string
	size           int64
	modTime        time.Time
}

// planned is a discovered file annotated with the classification
// decision: whether it needs reading at all, plus the prior record (if
// any) that hashFile compares against or carries forward.
type planned struct {
	discovered
	priorRecord *backupinfo.FileRecord // nil if never seen before
	needsRead   bool                   // false => carry prior record forward unread
}

// sealedResult is produced by a hashing worker and consumed by an upload
// worker (or, for a dedup hit, consumed directly by the coordinator
// without ever reaching the upload pool).
type sealedResult struct {
	plan planned

	record backupinfo.FileRecord
	fail   *backupinfo.FileError

	// sealed holds the enveloped (or plaintext passthrough) bytes destined
	// for PutObject; nil when the file was resolved as a dedup reference
	// or failed before sealing.
	sealed []byte
}
