// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/digest"
	"github.com/tomtom215/strongroom/internal/envelope"
)

func newStore(t *testing.T) *backupinfo.Store {
	t.Helper()
	store, err := backupinfo.Open(t.TempDir(), "unit-test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck
	return store
}

func writeTempFile(t *testing.T, dir, name, content string) discovered {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return discovered{
		sourcePath:     path,
		normalizedPath: backupinfo.NormalizePath(path),
		size:           info.Size(),
		modTime:        info.ModTime().UTC(),
	}
}

func TestHashFile_CarriesForwardUnreadPlan(t *testing.T) {
	t.Parallel()
	prior := &backupinfo.FileRecord{SourcePath: "/old", NormalizedPath: "/old", Size: 5}
	plan := planned{discovered: discovered{sourcePath: "/new"}, priorRecord: prior, needsRead: false}

	res := hashFile(context.Background(), plan, nil, nil, Options{})
	require.Nil(t, res.fail)
	require.Equal(t, "/new", res.record.SourcePath)
	require.Nil(t, res.sealed)
}

func TestHashFile_SealsUnencryptedPassthrough(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d := writeTempFile(t, dir, "a.txt", "hello world")
	plan := planned{discovered: d, needsRead: true}

	store := newStore(t)
	res := hashFile(context.Background(), plan, store, nil, Options{Storage: "s1", Encrypt: false})

	require.Nil(t, res.fail)
	require.NotNil(t, res.sealed)

	expected, _, err := digest.HashFile(context.Background(), mustOpen(t, d.sourcePath))
	require.NoError(t, err)
	require.Equal(t, expected, res.record.PlaintextDigest)
	require.False(t, res.record.Encrypted)
}

func TestHashFile_SealsEncrypted(t *testing.T) {
	t.Parallel()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	aead, err := envelope.NewAEAD(key)
	require.NoError(t, err)

	dir := t.TempDir()
	d := writeTempFile(t, dir, "a.txt", "hello encrypted world")
	plan := planned{discovered: d, needsRead: true}

	store := newStore(t)
	res := hashFile(context.Background(), plan, store, aead, Options{Storage: "s1", Encrypt: true})

	require.Nil(t, res.fail)
	require.NotNil(t, res.sealed)
	require.True(t, res.record.Encrypted)

	plaintext, err := envelope.OpenWithAAD(aead, res.sealed, res.record.PlaintextDigest)
	require.NoError(t, err)
	require.Equal(t, "hello encrypted world", string(plaintext))
}

func TestHashFile_IncrementalPlusSkipsUnchangedContent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d := writeTempFile(t, dir, "a.txt", "stable content")

	priorDigest, _, err := digest.HashFile(context.Background(), mustOpen(t, d.sourcePath))
	require.NoError(t, err)
	prior := &backupinfo.FileRecord{
		SourcePath: d.sourcePath, NormalizedPath: d.normalizedPath,
		Size: d.size, ModTimeUTC: d.modTime, PlaintextDigest: priorDigest,
	}
	plan := planned{discovered: d, priorRecord: prior, needsRead: true}

	store := newStore(t)
	res := hashFile(context.Background(), plan, store, nil, Options{Storage: "s1", RequestedType: backupinfo.BackupIncrementalPlus})

	require.Nil(t, res.fail)
	require.Nil(t, res.sealed, "unchanged incremental-plus content must not be resealed")
	require.Equal(t, priorDigest, res.record.PlaintextDigest)
}

func TestHashFile_PlainIncrementalReseatsChangedFileWithoutBitrotCheck(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d := writeTempFile(t, dir, "a.txt", "new content")

	// A prior record with a different digest and a different datesize: under
	// plain incremental, classify() would have already routed this file to
	// needsRead=true on datesize alone, so hashFile must reseal it directly
	// rather than running the incremental-plus hash-only pre-check (which
	// would incorrectly compare against the prior digest and could also
	// raise a spurious bitrot warning).
	prior := &backupinfo.FileRecord{
		SourcePath: d.sourcePath, NormalizedPath: d.normalizedPath,
		Size: d.size + 1, ModTimeUTC: d.modTime.Add(-time.Hour),
		PlaintextDigest: [32]byte{0xAA},
	}
	plan := planned{discovered: d, priorRecord: prior, needsRead: true}

	store := newStore(t)
	res := hashFile(context.Background(), plan, store, nil, Options{Storage: "s1", RequestedType: backupinfo.BackupIncremental})

	require.Nil(t, res.fail)
	require.NotNil(t, res.sealed, "a changed file under plain incremental must be resealed")
	require.False(t, res.record.BitrotWarning)

	expected, _, err := digest.HashFile(context.Background(), mustOpen(t, d.sourcePath))
	require.NoError(t, err)
	require.Equal(t, expected, res.record.PlaintextDigest)
}

func TestHashFile_IncrementalPlusDedupResolvesDuplicate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	first := writeTempFile(t, dir, "first.txt", "duplicate body")
	second := writeTempFile(t, dir, "second.txt", "duplicate body")

	store := newStore(t)

	// Seed the store with a committed record for "first.txt" so the dedup
	// lookup in hashFile for "second.txt" finds it.
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	aead, err := envelope.NewAEAD(key)
	require.NoError(t, err)

	firstPlan := planned{discovered: first, needsRead: true}
	firstRes := hashFile(context.Background(), firstPlan, store, aead, Options{Storage: "s1", Encrypt: true})
	require.Nil(t, firstRes.fail)
	firstRes.record.StoredObjectID = string(objectID(firstRes.record.CiphertextDigest))

	require.NoError(t, store.CommitBackup(backupinfo.SpecificBackup{
		Label: "seed", Files: []backupinfo.FileRecord{firstRes.record},
	}))

	secondPlan := planned{discovered: second, needsRead: true}
	secondRes := hashFile(context.Background(), secondPlan, store, aead,
		Options{Storage: "s1", Encrypt: true, RequestedType: backupinfo.BackupIncrementalPlusDedup})

	require.Nil(t, secondRes.fail)
	require.Nil(t, secondRes.sealed, "a dedup hit must not produce bytes destined for upload")
	require.Equal(t, first.normalizedPath, secondRes.record.DedupRef)
	require.Equal(t, firstRes.record.StoredObjectID, secondRes.record.StoredObjectID)
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test fixture path
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() }) //nolint:errcheck
	return f
}
