// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pfi

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/strongroom/internal/errs"
)

// sidecarSuffix names the small file a SidecarSink keeps beside each data
// file, e.g. "photo.jpg.atbu".
const sidecarSuffix = ".atbu"

// SidecarSink is the "per-file" pfi shape: each data file's record lives
// in its own <name>.<ext>.atbu JSON file beside it, so a single file can
// be copied, moved, or deleted alongside its history without touching a
// shared database.
type SidecarSink struct {
	root string
}

// NewSidecarSink returns a sink rooted at root. Unlike DirSink there is no
// eager load: every sidecar is read lazily from disk by Load.
func NewSidecarSink(root string) *SidecarSink {
	return &SidecarSink{root: root}
}

func (s *SidecarSink) Root() string { return s.root }

// Reserved reports whether path is itself a sidecar file.
func (s *SidecarSink) Reserved(path string) bool {
	return strings.HasSuffix(path, sidecarSuffix)
}

func (s *SidecarSink) sidecarPath(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath)) + sidecarSuffix
}

func (s *SidecarSink) Load(relPath string) (*PersistentFileInfo, error) {
	data, err := os.ReadFile(s.sidecarPath(relPath)) //nolint:gosec // path joined under s.root
	switch {
	case err == nil:
		var info PersistentFileInfo
		if jsonErr := json.Unmarshal(data, &info); jsonErr != nil {
			return nil, errs.New(errs.KindConfig, "pfi.SidecarSink.Load", jsonErr).WithPath(relPath)
		}
		return &info, nil
	case os.IsNotExist(err):
		return nil, nil
	default:
		return nil, errs.New(errs.KindIO, "pfi.SidecarSink.Load", err).WithPath(relPath)
	}
}

func (s *SidecarSink) Save(info *PersistentFileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errs.New(errs.KindConfig, "pfi.SidecarSink.Save", err).WithPath(info.RelPath)
	}
	return atomicWrite(s.sidecarPath(info.RelPath), data)
}

func (s *SidecarSink) Remove(relPath string) error {
	if err := os.Remove(s.sidecarPath(relPath)); err != nil && !os.IsNotExist(err) {
		return errs.New(errs.KindIO, "pfi.SidecarSink.Remove", err).WithPath(relPath)
	}
	return nil
}

func (s *SidecarSink) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, sidecarSuffix) {
			return nil
		}
		dataPath := strings.TrimSuffix(path, sidecarSuffix)
		rel, relErr := filepath.Rel(s.root, dataPath)
		if relErr != nil {
			return relErr
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errs.New(errs.KindIO, "pfi.SidecarSink.List", err).WithPath(s.root)
	}
	sort.Strings(out)
	return out, nil
}
