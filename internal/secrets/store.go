// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package secrets

import (
	"github.com/99designs/keyring"

	"github.com/tomtom215/strongroom/internal/errs"
)

// SecretStore is the narrow interface DESIGN NOTES §9 maps "keyring" onto:
// a platform-specific implementation backs production use, an in-memory
// implementation backs tests.
type SecretStore interface {
	Get(label Label) ([]byte, error)
	Set(label Label, value []byte) error
	Remove(label Label) error
}

// keyringStore adapts 99designs/keyring (macOS Keychain / Secret Service /
// Windows Credential Manager, selected automatically by platform) to
// SecretStore.
type keyringStore struct {
	ring keyring.Keyring
}

// NewPlatformStore opens the platform secret store under serviceName
// (used by keyring as a namespacing prefix when a backend requires one).
func NewPlatformStore(serviceName string) (SecretStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, errs.New(errs.KindConfig, "secrets.NewPlatformStore", err)
	}
	return &keyringStore{ring: ring}, nil
}

func keyringKey(l Label) string { return l.Service + ":" + l.Username }

func (s *keyringStore) Get(label Label) ([]byte, error) {
	item, err := s.ring.Get(keyringKey(label))
	if err != nil {
		if err == keyring.ErrKeyNotFound {
			return nil, errs.New(errs.KindConfig, "secrets.Get", errs.ErrNotFound)
		}
		return nil, errs.New(errs.KindConfig, "secrets.Get", err)
	}
	return item.Data, nil
}

func (s *keyringStore) Set(label Label, value []byte) error {
	err := s.ring.Set(keyring.Item{
		Key:  keyringKey(label),
		Data: value,
	})
	if err != nil {
		return errs.New(errs.KindConfig, "secrets.Set", err)
	}
	return nil
}

func (s *keyringStore) Remove(label Label) error {
	if err := s.ring.Remove(keyringKey(label)); err != nil {
		if err == keyring.ErrKeyNotFound {
			return errs.New(errs.KindConfig, "secrets.Remove", errs.ErrNotFound)
		}
		return errs.New(errs.KindConfig, "secrets.Remove", err)
	}
	return nil
}

// NewInMemoryStore returns a SecretStore backed by keyring's in-process
// array keyring, used in tests (DESIGN NOTES §9: "tests use an in-memory
// implementation").
func NewInMemoryStore() SecretStore {
	return &keyringStore{ring: keyring.NewArrayKeyring(nil)}
}
