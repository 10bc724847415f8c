// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package envelope implements the crypto envelope (C2): an AES-256-GCM
// sealed-object format with a persisted IV and the plaintext SHA-256 bound
// in as additional authenticated data, so a tag mismatch on read detects
// tampering with the key, the ciphertext, or the claimed plaintext digest.
//
// Grounded on the teacher's credential-encryption pattern (AES-256-GCM
// over a derived key), generalized from a single fixed-salt credential-wrap
// key to a per-StorageDefinition 256-bit object-sealing key supplied by
// internal/secrets.
package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tomtom215/strongroom/internal/errs"
)

const (
	// Magic identifies a strongroom sealed object.
	Magic uint32 = 0x53524d31 // "SRM1"

	// Version1 is the only defined envelope version.
	Version1 byte = 1

	// FlagPersistedIV is required: the IV always travels in the header.
	FlagPersistedIV byte = 0x01

	ivSize     = 12
	headerSize = 4 + 1 + 1 + 2 // magic + version + flags + reserved
	keySize    = 32
)

// Header is the fixed-size prefix of every sealed object.
type Header struct {
	Magic   uint32
	Version byte
	Flags   byte
}

func (h Header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, errs.New(errs.KindCrypto, "envelope.decodeHeader", io.ErrUnexpectedEOF)
	}
	h := Header{
		Magic:   binary.BigEndian.Uint32(buf[0:4]),
		Version: buf[4],
		Flags:   buf[5],
	}
	if h.Magic != Magic {
		return Header{}, errs.New(errs.KindCrypto, "envelope.decodeHeader", errs.ErrBadMagic)
	}
	if h.Version != Version1 {
		return Header{}, errs.New(errs.KindCrypto, "envelope.decodeHeader", errs.ErrUnsupportedVersion)
	}
	return h, nil
}

// NewAEAD constructs an AES-256-GCM AEAD from a raw 256-bit key, as held by
// internal/secrets for a given StorageDefinition.
func NewAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, errs.New(errs.KindCrypto, "envelope.NewAEAD", fmt.Errorf("key must be %d bytes, got %d", keySize, len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "envelope.NewAEAD", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "envelope.NewAEAD", err)
	}
	return gcm, nil
}

// Writer is a digest.Sink that buffers plaintext, seals it as a single AEAD
// blob at Close (no chunked framing, per the envelope's single-sealed-blob
// design), and writes HEADER || IV || CIPHERTEXT || TAG to the underlying
// stream.
type Writer struct {
	aead cipher.AEAD
	out  io.Writer
	buf  bytes.Buffer
	hash [32]byte
}

// NewWriter returns a Writer that seals plaintext written to it and emits
// the envelope to out.
func NewWriter(out io.Writer, aead cipher.AEAD) *Writer {
	return &Writer{aead: aead, out: out}
}

// Write buffers plaintext for sealing at Close; it never suspends on I/O.
func (w *Writer) Write(chunk []byte) (int, error) {
	return w.buf.Write(chunk)
}

// Close seals the buffered plaintext (AAD-bound to its own SHA-256) and
// writes the envelope to the underlying stream, returning the ciphertext
// digest and size written.
func (w *Writer) Close() ([32]byte, int64, error) {
	plaintext := w.buf.Bytes()
	digest := sha256.Sum256(plaintext)

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return [32]byte{}, 0, errs.New(errs.KindCrypto, "envelope.Writer.Close", err)
	}

	sealed := w.aead.Seal(nil, iv, plaintext, digest[:])

	header := Header{Magic: Magic, Version: Version1, Flags: FlagPersistedIV}

	var total bytes.Buffer
	total.Write(header.encode())
	total.Write(iv)
	total.Write(sealed)

	n, err := w.out.Write(total.Bytes())
	if err != nil {
		return [32]byte{}, 0, errs.New(errs.KindIO, "envelope.Writer.Close", err)
	}

	cipherDigest := sha256.Sum256(total.Bytes())
	return cipherDigest, int64(n), nil
}

// Seal is a non-streaming convenience wrapper for small objects (e.g. a
// backup manifest or the history DB's self-backup) that already hold their
// full plaintext in memory.
func Seal(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	digest := sha256.Sum256(plaintext)
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, errs.New(errs.KindCrypto, "envelope.Seal", err)
	}
	sealed := aead.Seal(nil, iv, plaintext, digest[:])

	header := Header{Magic: Magic, Version: Version1, Flags: FlagPersistedIV}
	var out bytes.Buffer
	out.Write(header.encode())
	out.Write(iv)
	out.Write(sealed)
	return out.Bytes(), nil
}

// OpenWithAAD decrypts a sealed object given the expected plaintext digest
// (typically the FileRecord's recorded digest), which must match the AAD
// bound at seal time. Returns errs.ErrAuthFailure on any mismatch: wrong
// key, tampered ciphertext, or a plaintext digest that does not match what
// was actually sealed.
func OpenWithAAD(aead cipher.AEAD, sealed []byte, expectedPlaintextDigest [32]byte) ([]byte, error) {
	if len(sealed) < headerSize+ivSize {
		return nil, errs.New(errs.KindCrypto, "envelope.OpenWithAAD", io.ErrUnexpectedEOF)
	}
	if _, err := decodeHeader(sealed[:headerSize]); err != nil {
		return nil, err
	}

	iv := sealed[headerSize : headerSize+ivSize]
	ciphertext := sealed[headerSize+ivSize:]

	plaintext, err := aead.Open(nil, iv, ciphertext, expectedPlaintextDigest[:])
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "envelope.OpenWithAAD", errs.ErrAuthFailure)
	}

	actual := sha256.Sum256(plaintext)
	if actual != expectedPlaintextDigest {
		return nil, errs.New(errs.KindCrypto, "envelope.OpenWithAAD", errs.ErrAuthFailure)
	}

	return plaintext, nil
}
