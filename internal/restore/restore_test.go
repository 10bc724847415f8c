// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package restore

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/envelope"
	"github.com/tomtom215/strongroom/internal/storage"
)

func hexFull(digest [32]byte) string   { return hex.EncodeToString(digest[:]) }
func hexPrefix(digest [32]byte) string { return hexFull(digest)[:2] }
func byteReader(b []byte) io.Reader    { return bytes.NewReader(b) }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	aead, err := envelope.NewAEAD(key)
	require.NoError(t, err)

	provider, err := storage.NewFilesystemProvider(t.TempDir())
	require.NoError(t, err)
	container, err := provider.CreateContainer(context.Background(), "backups", false)
	require.NoError(t, err)

	store, err := backupinfo.Open(t.TempDir(), "restore-test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck

	return &Engine{Store: store, Provider: provider, Container: container, AEAD: aead}
}

// sealAndCommit seals plaintext, uploads it under a digest-derived object
// id, and commits a one-file backup referencing it — a minimal stand-in
// for what internal/backupengine does on a real run.
func sealAndCommit(t *testing.T, e *Engine, label, sourcePath, plaintext string) backupinfo.FileRecord {
	t.Helper()
	return sealAndCommitWithModTime(t, e, label, sourcePath, plaintext, time.Time{})
}

// sealAndCommitWithModTime is sealAndCommit with an explicit FileRecord
// mod-time, for exercising restore's mtime-preservation behavior.
func sealAndCommitWithModTime(t *testing.T, e *Engine, label, sourcePath, plaintext string, modTime time.Time) backupinfo.FileRecord {
	t.Helper()

	plainDigest := sha256.Sum256([]byte(plaintext))
	sealed, err := envelope.Seal(e.AEAD, []byte(plaintext))
	require.NoError(t, err)
	cipherDigest := sha256.Sum256(sealed)

	objID := storage.ObjectID(hexPrefix(cipherDigest) + "/" + hexFull(cipherDigest))
	require.NoError(t, e.Provider.PutObject(context.Background(), e.Container, objID, byteReader(sealed), int64(len(sealed))))

	rec := backupinfo.FileRecord{
		SourcePath: sourcePath, NormalizedPath: backupinfo.NormalizePath(sourcePath),
		PlaintextDigest: plainDigest, CiphertextDigest: cipherDigest,
		StoredObjectID: string(objID), Encrypted: true, ModTimeUTC: modTime,
	}

	require.NoError(t, e.Store.CommitBackup(backupinfo.SpecificBackup{
		Label: label, Files: []backupinfo.FileRecord{rec},
	}))
	return rec
}

func TestEngine_Run_RestoreWritesPlaintext(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sealAndCommit(t, e, "b1", "docs/a.txt", "restored content")

	destDir := t.TempDir()
	result, err := e.Run(context.Background(), Options{Label: "b1", DestDir: destDir, Mode: ModeRestore})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.NoError(t, result.Files[0].Err)
	require.True(t, result.Files[0].Verified)

	data, err := os.ReadFile(result.Files[0].DestPath)
	require.NoError(t, err)
	require.Equal(t, "restored content", string(data))
}

func TestEngine_Run_RestorePreservesModTime(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	wantModTime := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)
	sealAndCommitWithModTime(t, e, "b1", "docs/a.txt", "restored content", wantModTime)

	destDir := t.TempDir()
	result, err := e.Run(context.Background(), Options{Label: "b1", DestDir: destDir, Mode: ModeRestore})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.NoError(t, result.Files[0].Err)

	info, err := os.Stat(result.Files[0].DestPath)
	require.NoError(t, err)
	require.True(t, info.ModTime().Equal(wantModTime), "got %v, want %v", info.ModTime(), wantModTime)
}

func TestEngine_Run_VerifyWritesNothing(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sealAndCommit(t, e, "b1", "docs/a.txt", "verify me")

	result, err := e.Run(context.Background(), Options{Label: "b1", Mode: ModeVerify})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.True(t, result.Files[0].Verified)
	require.Empty(t, result.Files[0].DestPath)
}

func TestEngine_Run_CompareDetectsMismatch(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sealAndCommit(t, e, "b1", "docs/a.txt", "original content")

	destDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(destDir, "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "docs", "a.txt"), []byte("drifted content"), 0o600))

	result, err := e.Run(context.Background(), Options{Label: "b1", DestDir: destDir, Mode: ModeCompare})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.False(t, result.Files[0].CompareMatch)
}

func TestEngine_Run_CompareReportsMatch(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sealAndCommit(t, e, "b1", "docs/a.txt", "same content")

	destDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(destDir, "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "docs", "a.txt"), []byte("same content"), 0o600))

	result, err := e.Run(context.Background(), Options{Label: "b1", DestDir: destDir, Mode: ModeCompare})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.True(t, result.Files[0].CompareMatch)
}

func TestEngine_Run_ResolvesDedupRef(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sealAndCommit(t, e, "seed", "first.txt", "duplicate body")

	dedupRec := backupinfo.FileRecord{
		SourcePath: "second.txt", NormalizedPath: backupinfo.NormalizePath("second.txt"),
		PlaintextDigest: sha256.Sum256([]byte("duplicate body")),
		DedupRef:        backupinfo.NormalizePath("first.txt"),
		Encrypted:       true,
	}
	require.NoError(t, e.Store.CommitBackup(backupinfo.SpecificBackup{
		Label: "dedup-run", Files: []backupinfo.FileRecord{dedupRec},
	}))

	destDir := t.TempDir()
	result, err := e.Run(context.Background(), Options{Label: "dedup-run", DestDir: destDir, Mode: ModeRestore})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.NoError(t, result.Files[0].Err)

	data, err := os.ReadFile(result.Files[0].DestPath)
	require.NoError(t, err)
	require.Equal(t, "duplicate body", string(data))
}

func TestValidateAndBuildDestPath_RejectsTraversal(t *testing.T) {
	t.Parallel()
	_, err := validateAndBuildDestPath(t.TempDir(), "../../etc/passwd")
	require.Error(t, err)
}

func TestValidateAndBuildDestPath_ReRootsAbsolutePath(t *testing.T) {
	t.Parallel()
	dest, err := validateAndBuildDestPath(t.TempDir(), "/etc/passwd")
	require.NoError(t, err)
	require.Contains(t, dest, "etc/passwd")
}
