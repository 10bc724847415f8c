// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pfi

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/strongroom/internal/errs"
)

// SaveDB materializes the current state of one or more locations into a
// single JSON database at destPath. Each location is either a directory
// (scanned with whichever shape it already uses, per-dir DB preferred
// over a sidecar scan when both could apply) or a path that already
// points at a saved DB file, which is read and merged as-is per §4.8's
// "treats an input path that points at a saved DB file as a
// pre-collected location."
func SaveDB(locations []string, destPath string) error {
	merged := dirDB{SchemaVersion: SchemaVersion, Records: make(map[string]*PersistentFileInfo)}

	for _, loc := range locations {
		records, err := collectLocation(loc)
		if err != nil {
			return err
		}
		for rel, info := range records {
			merged.Records[rel] = info
		}
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return errs.New(errs.KindConfig, "pfi.SaveDB", err).WithPath(destPath)
	}
	return atomicWrite(destPath, data)
}

func collectLocation(loc string) (map[string]*PersistentFileInfo, error) {
	fi, err := os.Stat(loc)
	if err != nil {
		return nil, errs.New(errs.KindIO, "pfi.collectLocation", err).WithPath(loc)
	}

	if !fi.IsDir() {
		data, err := os.ReadFile(loc) //nolint:gosec // operator-supplied location
		if err != nil {
			return nil, errs.New(errs.KindIO, "pfi.collectLocation", err).WithPath(loc)
		}
		var db dirDB
		if err := json.Unmarshal(data, &db); err != nil {
			return nil, errs.New(errs.KindConfig, "pfi.collectLocation", err).WithPath(loc)
		}
		return db.Records, nil
	}

	if _, err := os.Stat(filepath.Join(loc, dirDBFileName)); err == nil {
		dirSink, err := NewDirSink(loc)
		if err != nil {
			return nil, err
		}
		return snapshotSink(dirSink)
	}

	return snapshotSink(NewSidecarSink(loc))
}

func snapshotSink(sink Sink) (map[string]*PersistentFileInfo, error) {
	paths, err := sink.List()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*PersistentFileInfo, len(paths))
	for _, rel := range paths {
		info, err := sink.Load(rel)
		if err != nil {
			return nil, err
		}
		if info != nil {
			out[rel] = info
		}
	}
	return out, nil
}
