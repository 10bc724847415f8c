// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package pfi implements the persistent-file-info / diff engine (C8):
// per-file digest tracking independent of any backup run, stored either as
// one JSON database at a directory's root or as a sidecar file beside each
// data file. update-digests, save-db, and diff are all expressed over the
// abstract Sink interface and never branch on which shape is in use.
package pfi

import (
	"time"

	"github.com/tomtom215/strongroom/internal/errs"
)

// SchemaVersion is carried by every on-disk pfi document.
const SchemaVersion = 1

// ChangeDetectionType selects how update-digests decides whether a file's
// digest needs recomputing.
type ChangeDetectionType string

const (
	// DetectDatesize recomputes the digest only when size or mtime have
	// changed since the last observation, trusting the stored digest
	// otherwise.
	DetectDatesize ChangeDetectionType = "datesize"
	// DetectDigest always recomputes the digest and compares it to the
	// last observation, flagging "sneaky corruption" when size and mtime
	// are unchanged but the content digest differs.
	DetectDigest ChangeDetectionType = "digest"
)

// Per-location shape selectors, matching the command-line prefixes of §4.8.
const (
	ShapeDir     = "per-dir"
	ShapeSidecar = "per-file"
)

// Observation is one digest reading of a file at a point in time.
type Observation struct {
	Digest     [32]byte  `json:"digest"`
	Size       int64     `json:"size"`
	ModTimeUTC time.Time `json:"mod_time_utc"`
	ObservedAt time.Time `json:"observed_at"`
}

// PersistentFileInfo is one file's digest record: the newest entry in
// History is the current observation, earlier entries are append-only
// history that is never rewritten or trimmed.
type PersistentFileInfo struct {
	RelPath string        `json:"rel_path"`
	History []Observation `json:"history"`
}

// Current returns the most recent observation, or nil if info is nil or
// has never been observed.
func (info *PersistentFileInfo) Current() *Observation {
	if info == nil || len(info.History) == 0 {
		return nil
	}
	return &info.History[len(info.History)-1]
}

// Sink is the abstract persistence surface a PersistentFileInfo is read
// from and written to. DirSink and SidecarSink are its two shapes; every
// operation in this package (update-digests, save-db, diff) is written
// against Sink alone so the shape never leaks into that logic.
type Sink interface {
	// Root returns the directory this sink scans.
	Root() string
	// Reserved reports whether path is a file the sink itself owns (its
	// database file, or a sidecar file) and must be excluded from a walk
	// of data files.
	Reserved(path string) bool
	// Load returns the record for relPath (slash-separated, relative to
	// Root), or nil if none exists.
	Load(relPath string) (*PersistentFileInfo, error)
	// Save persists info under its own RelPath.
	Save(info *PersistentFileInfo) error
	// Remove deletes any persisted record for relPath.
	Remove(relPath string) error
	// List returns every relPath currently tracked, in sorted order.
	List() ([]string, error)
}

// OpenSink constructs the Sink implementation named by shape, rooted at
// root.
func OpenSink(shape, root string) (Sink, error) {
	switch shape {
	case ShapeDir:
		return NewDirSink(root)
	case ShapeSidecar:
		return NewSidecarSink(root), nil
	default:
		return nil, errs.New(errs.KindValidation, "pfi.OpenSink", errs.ErrUnexpectedState).WithPath(shape)
	}
}
