// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_CreateKeyAndUnlock(t *testing.T) {
	t.Parallel()

	m := NewManager(NewInMemoryStore())

	created, err := m.CreateKey("vault")
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, created.Key)

	unlocked, err := m.Unlock("vault", "")
	require.NoError(t, err)
	require.Equal(t, created.Key, unlocked)
}

func TestManager_Unlock_NotFound(t *testing.T) {
	t.Parallel()

	m := NewManager(NewInMemoryStore())
	_, err := m.Unlock("nonexistent", "")
	require.Error(t, err)
}

func TestManager_ExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	src := NewManager(NewInMemoryStore())
	_, err := src.CreateKey("vault")
	require.NoError(t, err)
	require.NoError(t, src.StoreProviderSecret("vault", "key=AKIA,secret=shh"))

	bundle, err := src.Export("vault", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, ExportSchemaVersion, bundle.SchemaVersion)
	require.NotEmpty(t, bundle.ExportID)

	dst := NewManager(NewInMemoryStore())
	err = dst.Import(bundle, "correct horse battery staple", false)
	require.NoError(t, err)

	srcKey, err := src.Unlock("vault", "")
	require.NoError(t, err)
	dstKey, err := dst.Unlock("vault", "")
	require.NoError(t, err)
	require.Equal(t, srcKey, dstKey)

	secret, err := dst.ProviderSecret("vault")
	require.NoError(t, err)
	require.Equal(t, "key=AKIA,secret=shh", secret)
}

func TestManager_Import_WrongPassword(t *testing.T) {
	t.Parallel()

	src := NewManager(NewInMemoryStore())
	_, err := src.CreateKey("vault")
	require.NoError(t, err)
	bundle, err := src.Export("vault", "right-password")
	require.NoError(t, err)

	dst := NewManager(NewInMemoryStore())
	err = dst.Import(bundle, "wrong-password", false)
	require.Error(t, err)
}

func TestManager_Import_RefusesOverwriteWithoutFlag(t *testing.T) {
	t.Parallel()

	src := NewManager(NewInMemoryStore())
	_, err := src.CreateKey("vault")
	require.NoError(t, err)
	bundle, err := src.Export("vault", "pw")
	require.NoError(t, err)

	dst := NewManager(NewInMemoryStore())
	require.NoError(t, dst.Import(bundle, "pw", false))

	err = dst.Import(bundle, "pw", false)
	require.Error(t, err)

	require.NoError(t, dst.Import(bundle, "pw", true))
}
