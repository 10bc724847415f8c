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
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tomtom215/strongroom/internal/digest"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// UpdateOptions configures update-digests.
type UpdateOptions struct {
	ChangeDetection ChangeDetectionType
	// Glob, when non-empty, restricts the walk to paths matching it
	// (relative to the sink's root, "/"-separated).
	Glob string
}

// UpdateResult summarizes one update-digests walk.
type UpdateResult struct {
	Scanned           int
	Updated           int
	SneakyCorruptions []string // relPaths where digest changed despite unchanged size+mtime
}

// UpdateDigests walks sink's root, skipping sidecar/database files, and
// for each regular file consults the existing record under opts's
// change-detection type: `datesize` recomputes only when size or mtime
// differ from the stored observation; `digest` always recomputes and
// flags "sneaky corruption" when the result differs despite an unchanged
// size and mtime. Every walked file gets a fresh Observation appended to
// its history regardless of whether the digest itself changed, per §4.8.
func UpdateDigests(ctx context.Context, sink Sink, opts UpdateOptions) (*UpdateResult, error) {
	log := logging.WithComponent("pfi")
	result := &UpdateResult{}
	root := sink.Root()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || sink.Reserved(path) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if opts.Glob != "" {
			matched, matchErr := doublestar.Match(opts.Glob, rel)
			if matchErr != nil {
				return errs.New(errs.KindValidation, "pfi.UpdateDigests", matchErr).WithPath(opts.Glob)
			}
			if !matched {
				return nil
			}
		}
		result.Scanned++

		info, err := d.Info()
		if err != nil {
			return err
		}
		size := info.Size()
		modTime := info.ModTime().UTC()

		existing, err := sink.Load(rel)
		if err != nil {
			return err
		}
		cur := existing.Current()

		needsRecompute := opts.ChangeDetection == DetectDigest || cur == nil ||
			cur.Size != size || !cur.ModTimeUTC.Equal(modTime)

		var newDigest [32]byte
		sneaky := false

		if needsRecompute {
			computed, _, hashErr := hashPath(ctx, path)
			if hashErr != nil {
				return hashErr
			}
			newDigest = computed
			if opts.ChangeDetection == DetectDigest && cur != nil &&
				cur.Size == size && cur.ModTimeUTC.Equal(modTime) && cur.Digest != newDigest {
				sneaky = true
			}
		} else {
			newDigest = cur.Digest
		}

		record := existing
		if record == nil {
			record = &PersistentFileInfo{RelPath: rel}
		}
		record.History = append(record.History, Observation{
			Digest:     newDigest,
			Size:       size,
			ModTimeUTC: modTime,
			ObservedAt: time.Now().UTC(),
		})

		if err := sink.Save(record); err != nil {
			return err
		}
		result.Updated++

		if sneaky {
			result.SneakyCorruptions = append(result.SneakyCorruptions, rel)
			log.Warn().
				Str("path", rel).
				Str("stored_digest", hex.EncodeToString(cur.Digest[:])).
				Str("observed_digest", hex.EncodeToString(newDigest[:])).
				Msg("sneaky corruption: digest changed despite unchanged size and mtime")
		}

		return nil
	})
	if err != nil {
		return nil, errs.New(errs.KindIO, "pfi.UpdateDigests", err).WithPath(root)
	}

	log.Info().
		Int("scanned", result.Scanned).
		Int("updated", result.Updated).
		Int("sneaky_corruptions", len(result.SneakyCorruptions)).
		Msg("update-digests complete")

	return result, nil
}

func hashPath(ctx context.Context, path string) ([32]byte, int64, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from WalkDir under an operator-chosen root
	if err != nil {
		return [32]byte{}, 0, errs.New(errs.KindIO, "pfi.hashPath", err).WithPath(path)
	}
	defer f.Close() //nolint:errcheck

	return digest.HashFile(ctx, f)
}
