// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package restore implements the restore/verify engine (C7): plan from a
// committed manifest, fetch+decrypt+reconstruct into a destination tree
// with path-traversal guards, or verify integrity without ever writing a
// destination file.
//
// Generalized from internal/backup/restore.go's tar-archive extraction
// (validateAndBuildDestPath path-traversal guard, copyAndCloseDestFile
// fsync-before-close pattern) from whole-archive restore to single
// content-addressed object restore.
package restore

import (
	"crypto/cipher"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/storage"
)

// Mode selects what Engine.Run does with each fetched, decrypted object.
type Mode int

const (
	// ModeRestore writes plaintext to DestDir, reconstructing the source tree.
	ModeRestore Mode = iota
	// ModeVerify only fetches, decrypts, and checks digests; nothing is written.
	ModeVerify
	// ModeCompare does everything ModeVerify does, plus hashes the
	// same-named file already present under DestDir and reports a
	// mismatch instead of failing outright.
	ModeCompare
)

// Options configures one Run.
type Options struct {
	Label   string // backup label, or the literal "last"
	Glob    string // matched against FileRecord.SourcePath; "" matches everything
	DestDir string // required for ModeRestore and ModeCompare

	Mode Mode
}

// FileResult is the per-file outcome of one restore/verify/compare run.
type FileResult struct {
	Record        backupinfo.FileRecord
	DestPath      string // empty in ModeVerify
	Verified      bool   // digests matched after decrypt
	CompareMatch  bool   // only meaningful in ModeCompare
	Err           error
	BitrotWarning bool
}

// Result is the outcome of one Engine.Run.
type Result struct {
	Label string
	Files []FileResult
}

// Engine restores or verifies files from one committed backup.
type Engine struct {
	Store     *backupinfo.Store
	Provider  storage.Provider
	Container storage.Container
	AEAD      cipher.AEAD
}
