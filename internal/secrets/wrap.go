// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Grounded on the teacher's HKDF-SHA256 + AES-256-GCM credential-encryption
// pattern, parameterized by an explicit purpose string instead of a single
// fixed application salt, so the same construction protects both an
// export-bundle password wrap and any future password-protected secret
// without key reuse across purposes.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/tomtom215/strongroom/internal/errs"
)

const (
	wrapSalt     = "strongroom-export-wrap"
	gcmNonceSize = 12
	aesKeySize   = 32
)

// KeyWrapper derives a per-purpose AES-256-GCM key from a password via
// HKDF-SHA256 and seals/opens small secrets with it.
type KeyWrapper struct {
	cipher cipher.AEAD
}

// NewKeyWrapper derives a wrapping key from password, bound to purpose
// (e.g. "export-bundle") so the same password cannot be replayed across
// unrelated wrap contexts.
func NewKeyWrapper(password, purpose string) (*KeyWrapper, error) {
	if password == "" {
		return nil, errs.New(errs.KindValidation, "secrets.NewKeyWrapper", errs.ErrBadPassword)
	}

	reader := hkdf.New(sha256.New, []byte(password), []byte(wrapSalt), []byte(purpose))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errs.New(errs.KindCrypto, "secrets.NewKeyWrapper", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "secrets.NewKeyWrapper", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "secrets.NewKeyWrapper", err)
	}

	return &KeyWrapper{cipher: gcm}, nil
}

// Wrap seals plaintext and returns a base64-encoded nonce||ciphertext||tag.
func (w *KeyWrapper) Wrap(plaintext []byte) (string, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errs.New(errs.KindCrypto, "secrets.Wrap", err)
	}
	sealed := w.cipher.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Unwrap decodes and opens a value produced by Wrap. A wrong password
// derives the wrong key, which the GCM tag check rejects as
// errs.ErrBadPassword.
func (w *KeyWrapper) Unwrap(wrapped string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, errs.New(errs.KindValidation, "secrets.Unwrap", errs.ErrCorruptExport)
	}
	if len(data) < gcmNonceSize+1+w.cipher.Overhead() {
		return nil, errs.New(errs.KindValidation, "secrets.Unwrap", errs.ErrCorruptExport)
	}

	nonce, ciphertext := data[:gcmNonceSize], data[gcmNonceSize:]
	plaintext, err := w.cipher.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.New(errs.KindConfig, "secrets.Unwrap", errs.ErrBadPassword)
	}
	return plaintext, nil
}
