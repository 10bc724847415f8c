// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupinfo

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/strongroom/internal/errs"
)

// ProviderKind matches the two provider families of §4.3.
type ProviderKind string

const (
	ProviderFilesystem   ProviderKind = "filesystem"
	ProviderObjectStorage ProviderKind = "object-storage"
)

// InterfaceKind distinguishes a provider's native SDK transport from a
// generic (S3-compatible) one, carried for informational/log purposes
// only; internal/storage selects its implementation from ProviderKind
// alone.
type InterfaceKind string

const (
	InterfaceNative  InterfaceKind = "native"
	InterfaceGeneric InterfaceKind = "generic"
)

// StorageDefinition is a named backup repository's configuration
// document: everything needed to open its provider and its encryption key
// reference, minus the secrets themselves (those live in internal/secrets,
// keyed by Name). Persisted next to the repository for a filesystem
// provider, or under the process-user config directory for a cloud one,
// per §3; rewritten only by explicit create/credential actions, never by
// a backup/restore run.
type StorageDefinition struct {
	SchemaVersion int `json:"schema_version"`

	Name             string        `json:"name"`
	Provider         ProviderKind  `json:"provider" validate:"oneof=filesystem object-storage"`
	Interface        InterfaceKind `json:"interface" validate:"omitempty,oneof=native generic"`
	Container        string        `json:"container" validate:"required"`
	Region           string        `json:"region,omitempty"`
	Endpoint         string        `json:"endpoint,omitempty"`
	ProjectID        string        `json:"project_id,omitempty"`
	EncryptionEnabled bool         `json:"encryption_enabled"`
	PersistedIV      bool          `json:"persisted_iv"`
}

// storageDefFileName is the on-disk name of a StorageDefinition document,
// matching the *.atbuinf family's naming convention for per-storage
// configuration.
const storageDefFileName = "atbu-storage-def.json"

// StorageDefPath returns where a StorageDefinition document is read from
// or written to for configDir.
func StorageDefPath(configDir string) string {
	return filepath.Join(configDir, storageDefFileName)
}

// SaveStorageDefinition atomically writes def to configDir, creating
// configDir if necessary. SchemaVersion is stamped unconditionally.
func SaveStorageDefinition(configDir string, def StorageDefinition) error {
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return errs.New(errs.KindIO, "backupinfo.SaveStorageDefinition", err)
	}
	def.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return errs.New(errs.KindConfig, "backupinfo.SaveStorageDefinition", err)
	}
	return atomicWrite(StorageDefPath(configDir), data)
}

// LoadStorageDefinition reads the StorageDefinition document from
// configDir.
func LoadStorageDefinition(configDir string) (*StorageDefinition, error) {
	data, err := os.ReadFile(StorageDefPath(configDir)) //nolint:gosec // path derived from configDir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.KindConfig, "backupinfo.LoadStorageDefinition", errs.ErrNotFound).WithPath(configDir)
		}
		return nil, errs.New(errs.KindIO, "backupinfo.LoadStorageDefinition", err).WithPath(configDir)
	}

	var def StorageDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, errs.New(errs.KindConfig, "backupinfo.LoadStorageDefinition", err).WithPath(configDir)
	}
	return &def, nil
}
