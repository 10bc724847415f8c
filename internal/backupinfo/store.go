// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupinfo

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/strongroom/internal/cache"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// manifestSuffix and historySuffix match the on-disk layout of §6.
const (
	manifestSuffix = ".atbuinf"
	historySuffix  = ".atbuinf"
)

// Store owns one storage definition's HistoryDB and manifest files. It
// serializes every write on mu per §5's "HistoryDB is written only by the
// coordinator thread"; readers within the same process take a read lock
// over an immutable snapshot.
type Store struct {
	mu sync.RWMutex

	configDir string // <user-config>/backup-info
	storage   string

	db HistoryDB

	// index is a rebuildable secondary index over db, backed by badger,
	// used for the two hot-path queries the backup engine needs on every
	// discovered file: LastRecordForPath and AnyRecordWithDigest. It is
	// never itself backed up; the canonical JSON documents are.
	index *badger.DB

	// digestBloom gives AnyRecordWithDigest a fast negative pre-check
	// before consulting badger, per SPEC_FULL.md's C5 domain-stack note.
	digestBloom *cache.BloomFilter

	// pathCache memoizes LastRecordForPath hits so a dedup chain walk
	// (internal/restore) or repeated CLI queries against the same path
	// within one process skip the badger read. Only hits are cached;
	// CommitBackup evicts every path it touches since a superseding
	// record would otherwise serve stale data.
	pathCache cache.Cacher
}

// Open loads (or initializes) the HistoryDB for storage from configDir,
// rebuilding the badger secondary index and bloom filter from the
// canonical JSON on open.
func Open(configDir, storage string) (*Store, error) {
	s := &Store{configDir: configDir, storage: storage}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, errs.New(errs.KindIO, "backupinfo.Open", err)
	}

	path := s.historyPath()
	data, err := os.ReadFile(path) //nolint:gosec // path derived from configDir + storage
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &s.db); jsonErr != nil {
			return nil, errs.New(errs.KindConfig, "backupinfo.Open", jsonErr)
		}
	case os.IsNotExist(err):
		s.db = HistoryDB{SchemaVersion: SchemaVersion, Storage: storage}
	default:
		return nil, errs.New(errs.KindIO, "backupinfo.Open", err)
	}

	opts := badger.DefaultOptions(filepath.Join(configDir, storage+".badgerindex")).WithLogger(nil)
	idx, err := badger.Open(opts)
	if err != nil {
		return nil, errs.New(errs.KindIO, "backupinfo.Open", err)
	}
	s.index = idx

	s.digestBloom = cache.NewBloomFilter(1_000_000, 0.01)
	s.pathCache = cache.NewTTL(5 * time.Minute)

	if err := s.rebuildIndexLocked(); err != nil {
		idx.Close() //nolint:errcheck
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

func (s *Store) historyPath() string {
	return filepath.Join(s.configDir, s.storage+historySuffix)
}

func (s *Store) manifestPath(label string) string {
	return filepath.Join(s.configDir, s.storage+"-"+label+manifestSuffix)
}

func (s *Store) rebuildIndexLocked() error {
	return s.index.Update(func(txn *badger.Txn) error {
		for _, backup := range s.db.Backups {
			for _, rec := range backup.Files {
				if err := indexRecord(txn, rec); err != nil {
					return err
				}
				s.digestBloom.Add(hex.EncodeToString(rec.PlaintextDigest[:]))
			}
		}
		return nil
	})
}

func pathKey(normalized string) []byte   { return []byte("path:" + normalized) }
func digestKey(digest [32]byte) []byte   { return []byte("digest:" + hex.EncodeToString(digest[:])) }

func indexRecord(txn *badger.Txn, rec FileRecord) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := txn.Set(pathKey(rec.NormalizedPath), encoded); err != nil {
		return err
	}
	return txn.Set(digestKey(rec.PlaintextDigest), encoded)
}

// NormalizePath folds a source path for use as a HistoryDB/PFI lookup key:
// lower-cased, separators converted to "/", applied uniformly on every
// platform per the Open Questions §9 decision (not conditional on GOOS),
// so a repository diffs consistently regardless of which platform created
// or is inspecting it. The original, display-cased path is kept separately
// on the FileRecord for restore and CLI output.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
}

// LastRecordForPath returns the most recent FileRecord for path, or nil if
// none exists.
func (s *Store) LastRecordForPath(path string) (*FileRecord, error) {
	normalized := NormalizePath(path)

	if cached, ok := s.pathCache.Get(normalized); ok {
		rec := cached.(FileRecord)
		return &rec, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec FileRecord
	found := false
	err := s.index.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pathKey(normalized))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, errs.New(errs.KindIO, "backupinfo.LastRecordForPath", err)
	}
	if !found {
		return nil, nil
	}
	s.pathCache.Set(normalized, rec)
	return &rec, nil
}

// AnyRecordWithDigest returns a FileRecord with the given content digest,
// for deduplication, using the bloom filter as a fast negative pre-check.
func (s *Store) AnyRecordWithDigest(digest [32]byte) (*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.digestBloom.Test(hex.EncodeToString(digest[:])) {
		return nil, nil
	}

	var rec FileRecord
	found := false
	err := s.index.View(func(txn *badger.Txn) error {
		item, err := txn.Get(digestKey(digest))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, errs.New(errs.KindIO, "backupinfo.AnyRecordWithDigest", err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// ListBackupLabels returns every committed backup label, newest first.
func (s *Store) ListBackupLabels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, len(s.db.Backups))
	for i, b := range s.db.Backups {
		labels[i] = b.Label
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))
	return labels
}

// FindBackup resolves label, supporting the literal "last".
func (s *Store) FindBackup(label string) (*SpecificBackup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if label == "last" {
		if len(s.db.Backups) == 0 {
			return nil, errs.New(errs.KindValidation, "backupinfo.FindBackup", errs.ErrNotFound)
		}
		latest := s.db.Backups[0]
		for _, b := range s.db.Backups[1:] {
			if b.Label > latest.Label {
				latest = b
			}
		}
		return &latest, nil
	}

	for _, b := range s.db.Backups {
		if b.Label == label {
			cp := b
			return &cp, nil
		}
	}
	return nil, errs.New(errs.KindValidation, "backupinfo.FindBackup", errs.ErrNotFound).WithPath(label)
}

// FilesInBackup returns every FileRecord in the backup named by label
// whose SourcePath matches glob.
func (s *Store) FilesInBackup(label, glob string) ([]FileRecord, error) {
	backup, err := s.FindBackup(label)
	if err != nil {
		return nil, err
	}

	if glob == "" {
		glob = "**"
	}

	var matched []FileRecord
	for _, rec := range backup.Files {
		ok, err := doublestar.Match(glob, rec.SourcePath)
		if err != nil {
			return nil, errs.New(errs.KindValidation, "backupinfo.FilesInBackup", err)
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// CommitBackup appends backup to the history DB and persists both the
// manifest and the history DB atomically per the §4.5 commit protocol:
// write `<label>.tmp`, fsync, rename; rebuild/update the history DB; write
// history-DB `.tmp`, fsync, rename. The history DB's own self-backup (the
// engine writing the history JSON to this same storage as one fixed
// object) is the caller's responsibility, invoked only after CommitBackup
// returns successfully.
func (s *Store) CommitBackup(backup SpecificBackup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup.SchemaVersion = SchemaVersion

	manifestData, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return errs.New(errs.KindConfig, "backupinfo.CommitBackup", err)
	}
	if err := atomicWrite(s.manifestPath(backup.Label), manifestData); err != nil {
		return err
	}

	s.db.Backups = append(s.db.Backups, backup)

	historyData, err := json.MarshalIndent(s.db, "", "  ")
	if err != nil {
		return errs.New(errs.KindConfig, "backupinfo.CommitBackup", err)
	}
	if err := atomicWrite(s.historyPath(), historyData); err != nil {
		return err
	}

	if err := s.index.Update(func(txn *badger.Txn) error {
		for _, rec := range backup.Files {
			if err := indexRecord(txn, rec); err != nil {
				return err
			}
			s.digestBloom.Add(hex.EncodeToString(rec.PlaintextDigest[:]))
			s.pathCache.Delete(rec.NormalizedPath)
		}
		return nil
	}); err != nil {
		return errs.New(errs.KindIO, "backupinfo.CommitBackup", err)
	}

	logging.WithComponent("backupinfo").Info().
		Str("label", backup.Label).
		Int("files", len(backup.Files)).
		Msg("backup committed")

	return nil
}

// MarshalHistory returns the canonical JSON encoding of the current
// history DB, used by the backup engine's self-backup step to seal and
// upload the catalog alongside the data it describes.
func (s *Store) MarshalHistory() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s.db, "", "  ")
	if err != nil {
		return nil, errs.New(errs.KindConfig, "backupinfo.MarshalHistory", err)
	}
	return data, nil
}

// atomicWrite implements the temp-file + fsync + rename sequence required
// by §4.5, generalized from internal/backup/manager.go's
// saveMetadataLocked (which wrote directly) to additionally fsync and
// rename so a reader never observes a partial document.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errs.New(errs.KindIO, "backupinfo.atomicWrite", err).WithPath(path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "backupinfo.atomicWrite", err).WithPath(path)
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "backupinfo.atomicWrite", err).WithPath(path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "backupinfo.atomicWrite", err).WithPath(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.New(errs.KindIO, "backupinfo.atomicWrite", err).WithPath(path)
	}
	return nil
}
