// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pfi

import (
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tomtom215/strongroom/internal/cache"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// DiffAction is an optional mutation applied to A-side duplicates after a
// diff completes.
type DiffAction string

const (
	ActionNone             DiffAction = ""
	ActionRemoveDuplicates DiffAction = "remove-duplicates"
	ActionMoveDuplicates   DiffAction = "move-duplicates"
)

// DiffOptions configures diff.
type DiffOptions struct {
	Action  DiffAction
	MoveDir string // required when Action == ActionMoveDuplicates
}

// DiffEntry names one file by its tracked relative path and digest.
type DiffEntry struct {
	RelPath string
	Digest  [32]byte
}

// DiffResult is the outcome of a diff run.
type DiffResult struct {
	// OnlyInA holds every A-file whose digest is absent from B.
	OnlyInA []DiffEntry
	// Acted holds every A-file the requested action (if any) was applied to.
	Acted []DiffEntry
}

// Diff computes A\B by content digest: files tracked in a whose current
// digest does not appear anywhere in b. A Bloom filter built from b's
// digests gives a fast negative pre-check, mirroring C5's
// AnyRecordWithDigest pre-check, before falling back to an exact map
// lookup for the (rare) possible-positive case.
//
// When opts.Action is set, every A-file whose digest DOES appear in B
// (a duplicate) is removed or moved per opts and its sink record is
// dropped; afterwards every empty directory under A's root is removed,
// including any that were already empty before the action.
func Diff(ctx context.Context, a, b Sink, opts DiffOptions) (*DiffResult, error) {
	bBloom, bDigests, err := collectDigests(b)
	if err != nil {
		return nil, err
	}

	aPaths, err := a.List()
	if err != nil {
		return nil, err
	}

	result := &DiffResult{}
	var duplicates []DiffEntry

	for _, rel := range aPaths {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.KindCancelled, "pfi.Diff", ctx.Err())
		default:
		}

		info, err := a.Load(rel)
		if err != nil {
			return nil, err
		}
		cur := info.Current()
		if cur == nil {
			continue
		}

		key := hex.EncodeToString(cur.Digest[:])
		present := bBloom.Test(key)
		if present {
			_, present = bDigests[key]
		}

		entry := DiffEntry{RelPath: rel, Digest: cur.Digest}
		if present {
			duplicates = append(duplicates, entry)
		} else {
			result.OnlyInA = append(result.OnlyInA, entry)
		}
	}

	if opts.Action == ActionNone || len(duplicates) == 0 {
		return result, nil
	}

	for _, d := range duplicates {
		if err := applyDiffAction(a, d.RelPath, opts); err != nil {
			return nil, err
		}
		result.Acted = append(result.Acted, d)
	}

	if err := removeEmptyDirs(a.Root()); err != nil {
		return nil, err
	}

	logging.WithComponent("pfi").Info().
		Str("action", string(opts.Action)).
		Int("count", len(result.Acted)).
		Msg("diff action applied")

	return result, nil
}

// collectDigests builds both a Bloom pre-check and an exact set of sink's
// current digests, keyed by hex digest string.
func collectDigests(sink Sink) (*cache.BloomFilter, map[string]struct{}, error) {
	paths, err := sink.List()
	if err != nil {
		return nil, nil, err
	}

	bloom := cache.NewBloomFilter(len(paths)+1, 0.01)
	set := make(map[string]struct{}, len(paths))

	for _, rel := range paths {
		info, err := sink.Load(rel)
		if err != nil {
			return nil, nil, err
		}
		cur := info.Current()
		if cur == nil {
			continue
		}
		key := hex.EncodeToString(cur.Digest[:])
		bloom.Add(key)
		set[key] = struct{}{}
	}
	return bloom, set, nil
}

// applyDiffAction removes or moves the data file (and its sidecar, when a
// is a SidecarSink) named by rel, then drops it from a's own tracking.
func applyDiffAction(a Sink, rel string, opts DiffOptions) error {
	dataPath := filepath.Join(a.Root(), filepath.FromSlash(rel))

	switch opts.Action {
	case ActionRemoveDuplicates:
		if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
			return errs.New(errs.KindIO, "pfi.applyDiffAction", err).WithPath(rel)
		}
	case ActionMoveDuplicates:
		destPath := filepath.Join(opts.MoveDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
			return errs.New(errs.KindIO, "pfi.applyDiffAction", err).WithPath(rel)
		}
		if err := os.Rename(dataPath, destPath); err != nil {
			return errs.New(errs.KindIO, "pfi.applyDiffAction", err).WithPath(rel)
		}
	case ActionNone:
	}

	if sc, ok := a.(*SidecarSink); ok {
		sidecar := sc.sidecarPath(rel)
		switch opts.Action {
		case ActionRemoveDuplicates:
			os.Remove(sidecar) //nolint:errcheck // best-effort; absence is not an error
		case ActionMoveDuplicates:
			destSidecar := filepath.Join(opts.MoveDir, filepath.FromSlash(rel)) + sidecarSuffix
			os.Rename(sidecar, destSidecar) //nolint:errcheck
		case ActionNone:
		}
	}

	return a.Remove(rel)
}

// removeEmptyDirs deletes every empty directory under root (excluding root
// itself), whether or not a move/remove action emptied it, deepest first
// so a chain of now-empty parents is cleared in one pass.
func removeEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return errs.New(errs.KindIO, "pfi.removeEmptyDirs", err).WithPath(root)
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i]) //nolint:errcheck // fails harmlessly when not empty
	}
	return nil
}
