// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// Manager implements the C4 operations over a SecretStore, caching the
// unlocked key for the duration of one process per §5's shared-resource
// policy ("C4 caches the unlocked key for the duration of one process").
type Manager struct {
	store SecretStore
	audit *logging.SecurityLogger

	cache map[string][32]byte
}

// NewManager wraps store with the C4 operation surface.
func NewManager(store SecretStore) *Manager {
	return &Manager{
		store: store,
		audit: logging.NewSecurityLogger(),
		cache: make(map[string][32]byte),
	}
}

// CreateKey generates a new random 256-bit AEAD key for storage and
// persists it to the secret store.
func (m *Manager) CreateKey(storage string) (EncryptionKey, error) {
	var raw [32]byte
	if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
		return EncryptionKey{}, errs.New(errs.KindCrypto, "secrets.CreateKey", err)
	}

	label := Label{Service: storage, Username: UsernameEncryptionKey}
	if err := m.store.Set(label, raw[:]); err != nil {
		m.audit.LogKeyUnlocked(storage, UsernameEncryptionKey, false, err.Error())
		return EncryptionKey{}, err
	}

	m.cache[storage] = raw
	m.audit.LogKeyCreated(storage, UsernameEncryptionKey)

	return EncryptionKey{Storage: storage, Key: raw, CreatedAt: timeNow()}, nil
}

// Unlock retrieves the encryption key for storage, consulting the
// process-lifetime cache first. password is reserved for a future
// password-wrapped-at-rest mode; the current on-disk format stores the raw
// key directly in the platform secret store, never in the configuration
// document.
func (m *Manager) Unlock(storage string, password string) ([32]byte, error) {
	if cached, ok := m.cache[storage]; ok {
		return cached, nil
	}

	label := Label{Service: storage, Username: UsernameEncryptionKey}
	raw, err := m.store.Get(label)
	if err != nil {
		m.audit.LogKeyUnlocked(storage, UsernameEncryptionKey, false, err.Error())
		return [32]byte{}, errs.New(errs.KindConfig, "secrets.Unlock", err)
	}
	if len(raw) != 32 {
		m.audit.LogKeyUnlocked(storage, UsernameEncryptionKey, false, "corrupt key length")
		return [32]byte{}, errs.New(errs.KindConfig, "secrets.Unlock", errs.ErrCorruptExport)
	}

	var key [32]byte
	copy(key[:], raw)
	m.cache[storage] = key
	m.audit.LogKeyUnlocked(storage, UsernameEncryptionKey, true, "")
	return key, nil
}

// Export emits a password-wrapped bundle containing the storage
// definition's encryption key (and provider secret, if present) suitable
// for offline storage.
func (m *Manager) Export(storage, password string) (*ExportBundle, error) {
	key, err := m.Unlock(storage, "")
	if err != nil {
		m.audit.LogKeyExported(storage, "", false, err.Error())
		return nil, err
	}

	wrapper, err := NewKeyWrapper(password, "export-bundle")
	if err != nil {
		return nil, err
	}

	wrappedKey, err := wrapper.Wrap(key[:])
	if err != nil {
		m.audit.LogKeyExported(storage, "", false, err.Error())
		return nil, err
	}

	var wrappedSecret string
	if secret, err := m.store.Get(Label{Service: storage, Username: UsernameProviderSecret}); err == nil {
		wrappedSecret, err = wrapper.Wrap(secret)
		if err != nil {
			return nil, err
		}
	}

	bundle := &ExportBundle{
		SchemaVersion: ExportSchemaVersion,
		ExportID:      uuid.NewString(),
		Storage:       storage,
		WrappedKey:    wrappedKey,
		WrappedSecret: wrappedSecret,
		CreatedAt:     timeNow(),
	}

	m.audit.LogKeyExported(storage, bundle.ExportID, true, "")
	return bundle, nil
}

// Import decodes and unwraps bundle, refusing to overwrite an existing
// storage definition's key unless overwrite is set.
func (m *Manager) Import(bundle *ExportBundle, password string, overwrite bool) error {
	if bundle.SchemaVersion != ExportSchemaVersion {
		return errs.New(errs.KindConfig, "secrets.Import", errs.ErrCorruptExport)
	}

	label := Label{Service: bundle.Storage, Username: UsernameEncryptionKey}
	if _, err := m.store.Get(label); err == nil && !overwrite {
		m.audit.LogKeyImported(bundle.Storage, bundle.ExportID, false, "already exists")
		return errs.New(errs.KindConfig, "secrets.Import", errs.ErrAlreadyExists)
	}

	wrapper, err := NewKeyWrapper(password, "export-bundle")
	if err != nil {
		return err
	}

	key, err := wrapper.Unwrap(bundle.WrappedKey)
	if err != nil {
		m.audit.LogKeyImported(bundle.Storage, bundle.ExportID, false, err.Error())
		return err
	}

	if err := m.store.Set(label, key); err != nil {
		m.audit.LogKeyImported(bundle.Storage, bundle.ExportID, false, err.Error())
		return err
	}

	if bundle.WrappedSecret != "" {
		secret, err := wrapper.Unwrap(bundle.WrappedSecret)
		if err != nil {
			m.audit.LogKeyImported(bundle.Storage, bundle.ExportID, false, err.Error())
			return err
		}
		if err := m.store.Set(Label{Service: bundle.Storage, Username: UsernameProviderSecret}, secret); err != nil {
			return err
		}
	}

	var keyArr [32]byte
	copy(keyArr[:], key)
	m.cache[bundle.Storage] = keyArr

	m.audit.LogKeyImported(bundle.Storage, bundle.ExportID, true, "")
	return nil
}

// StoreProviderSecret persists the provider access secret (the
// `key=<k>,secret=<s>[,project=<p>]` document from `creds
// create-storage-def`) for storage.
func (m *Manager) StoreProviderSecret(storage, secret string) error {
	if err := m.store.Set(Label{Service: storage, Username: UsernameProviderSecret}, []byte(secret)); err != nil {
		return errs.New(errs.KindConfig, "secrets.StoreProviderSecret", err)
	}
	m.audit.LogStorageDefinitionCreated(storage, "")
	return nil
}

// ProviderSecret retrieves the provider access secret for storage.
func (m *Manager) ProviderSecret(storage string) (string, error) {
	raw, err := m.store.Get(Label{Service: storage, Username: UsernameProviderSecret})
	if err != nil {
		return "", errs.New(errs.KindConfig, "secrets.ProviderSecret", err)
	}
	return string(raw), nil
}

// EncodeOpaque base64-encodes arbitrary bytes for inclusion in a
// non-secret configuration document (used only for non-sensitive
// metadata; secrets never appear here).
func EncodeOpaque(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// timeNow is a narrow seam so tests can stamp deterministic times; in
// production it is time.Now().UTC().
var timeNow = func() time.Time { return time.Now().UTC() }
