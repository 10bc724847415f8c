// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pfi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestSaveDB_MergesSidecarAndDirLocations(t *testing.T) {
	t.Parallel()
	sidecarRoot, dirRoot := t.TempDir(), t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(sidecarRoot, "a.txt"), []byte("from sidecar"), 0o600))
	sidecarSink := NewSidecarSink(sidecarRoot)
	_, err := UpdateDigests(context.Background(), sidecarSink, UpdateOptions{ChangeDetection: DetectDatesize})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dirRoot, "b.txt"), []byte("from dir"), 0o600))
	dirSink, err := NewDirSink(dirRoot)
	require.NoError(t, err)
	_, err = UpdateDigests(context.Background(), dirSink, UpdateOptions{ChangeDetection: DetectDatesize})
	require.NoError(t, err)

	destPath := filepath.Join(t.TempDir(), "merged.json")
	require.NoError(t, SaveDB([]string{sidecarRoot, dirRoot}, destPath))

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	var merged dirDB
	require.NoError(t, json.Unmarshal(data, &merged))
	require.Contains(t, merged.Records, "a.txt")
	require.Contains(t, merged.Records, "b.txt")
}

func TestSaveDB_TreatsExistingDBFileAsPrecollectedLocation(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o600))
	sink := NewSidecarSink(root)
	_, err := UpdateDigests(context.Background(), sink, UpdateOptions{ChangeDetection: DetectDatesize})
	require.NoError(t, err)

	firstDB := filepath.Join(t.TempDir(), "first.json")
	require.NoError(t, SaveDB([]string{root}, firstDB))

	secondDB := filepath.Join(t.TempDir(), "second.json")
	require.NoError(t, SaveDB([]string{firstDB}, secondDB))

	data, err := os.ReadFile(secondDB)
	require.NoError(t, err)
	var merged dirDB
	require.NoError(t, json.Unmarshal(data, &merged))
	require.Contains(t, merged.Records, "a.txt")
}
