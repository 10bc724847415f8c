// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pfi

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/strongroom/internal/errs"
)

// dirDBFileName is the per-dir database's reserved name at a location's
// root, matching the sidecar suffix's ".atbu" family.
const dirDBFileName = "atbu-pfi.json"

type dirDB struct {
	SchemaVersion int                            `json:"schema_version"`
	Records       map[string]*PersistentFileInfo `json:"records"`
}

// DirSink is the "per-dir" pfi shape: one JSON database file at the
// location root, keyed by path relative to that root.
type DirSink struct {
	mu   sync.Mutex
	root string
	path string
	db   dirDB
}

// NewDirSink loads (or initializes) the per-dir database at root.
func NewDirSink(root string) (*DirSink, error) {
	s := &DirSink{root: root, path: filepath.Join(root, dirDBFileName)}

	data, err := os.ReadFile(s.path) //nolint:gosec // path derived from root
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &s.db); jsonErr != nil {
			return nil, errs.New(errs.KindConfig, "pfi.NewDirSink", jsonErr).WithPath(s.path)
		}
	case os.IsNotExist(err):
		s.db = dirDB{SchemaVersion: SchemaVersion}
	default:
		return nil, errs.New(errs.KindIO, "pfi.NewDirSink", err).WithPath(s.path)
	}
	if s.db.Records == nil {
		s.db.Records = make(map[string]*PersistentFileInfo)
	}
	return s, nil
}

func (s *DirSink) Root() string { return s.root }

// Reserved reports whether path is this sink's own database file.
func (s *DirSink) Reserved(path string) bool {
	return filepath.Clean(path) == filepath.Clean(s.path)
}

func (s *DirSink) Load(relPath string) (*PersistentFileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.db.Records[relPath]
	if !ok {
		return nil, nil
	}
	cp := *rec
	cp.History = append([]Observation(nil), rec.History...)
	return &cp, nil
}

func (s *DirSink) Save(info *PersistentFileInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *info
	cp.History = append([]Observation(nil), info.History...)
	s.db.Records[info.RelPath] = &cp
	return s.persistLocked()
}

func (s *DirSink) Remove(relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.Records[relPath]; !ok {
		return nil
	}
	delete(s.db.Records, relPath)
	return s.persistLocked()
}

func (s *DirSink) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.db.Records))
	for k := range s.db.Records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *DirSink) persistLocked() error {
	s.db.SchemaVersion = SchemaVersion
	data, err := json.MarshalIndent(s.db, "", "  ")
	if err != nil {
		return errs.New(errs.KindConfig, "pfi.DirSink.persist", err).WithPath(s.path)
	}
	return atomicWrite(s.path, data)
}
