// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package secrets implements the key/credential manager (C4): it holds,
// per storage definition, the provider access secret and the object
// encryption key in the platform secret store, and offers password-wrapped
// export/import of a storage definition's credential bundle.
package secrets

import "time"

// EncryptionKey is a 256-bit AEAD key plus metadata about how it is
// protected at rest.
type EncryptionKey struct {
	Storage     string
	Key         [32]byte
	CreatedAt   time.Time
	PasswordWrapped bool
}

// ProviderCredential is the secret half of a StorageDefinition's provider
// configuration (e.g. an S3 access key/secret pair, encoded opaquely).
type ProviderCredential struct {
	Storage string
	Secret  string // provider-specific encoded form, e.g. "key=...,secret=...,project=..."
}

// Label identifies a secret-store (service, username) pair. The service is
// always the storage definition's name; the username is a well-known
// constant distinguishing the encryption key from the provider secret.
type Label struct {
	Service  string
	Username string
}

const (
	// UsernameEncryptionKey is the well-known secret-store username for a
	// storage definition's AEAD object-encryption key.
	UsernameEncryptionKey = "strongroom-encryption-key"
	// UsernameProviderSecret is the well-known secret-store username for a
	// storage definition's provider access credential.
	UsernameProviderSecret = "strongroom-provider-secret"
)

// ExportBundle is the portable document produced by Export and consumed by
// Import. Secrets within are base64-wrapped (password-based AEAD), and each
// wrapped value is authenticated on its own, so tampering with one is
// detected on Import. The other fields (schema version, export id,
// storage name, creation time) are not authenticated; a change to them is
// not detected.
type ExportBundle struct {
	SchemaVersion  int    `json:"schema_version"`
	ExportID       string `json:"export_id"`
	Storage        string `json:"storage"`
	WrappedKey     string `json:"wrapped_key"`
	WrappedSecret  string `json:"wrapped_secret,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

const ExportSchemaVersion = 1
