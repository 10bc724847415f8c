// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package digest implements the chunked SHA-256 stream pipeline (C1): it
// reads a file in fixed-size chunks, accumulates a plaintext digest, hands
// each chunk to a Sink (the crypto envelope, C2, or a plain passthrough),
// and asks the sink for the ciphertext digest/size once sealed at Close.
package digest

import (
	"context"
	"crypto/sha256"
	"io"

	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// DefaultChunkSize is used when Pipeline is constructed with a zero size.
const DefaultChunkSize = 1 << 20 // 1 MiB

// Sink receives plaintext chunks in order. Because the crypto envelope (C2)
// seals its AEAD tag over the whole object rather than per chunk, the
// ciphertext digest and size are only known at Close, not incrementally.
type Sink interface {
	// Write consumes one plaintext chunk.
	Write(chunk []byte) (int, error)
	// Close finalizes the sink and returns the digest and size of
	// whatever was ultimately written downstream (identical to the
	// plaintext digest for an unencrypted sink).
	Close() (digest [32]byte, size int64, err error)
}

// passthroughSink is used when encryption is disabled.
type passthroughSink struct {
	w    io.Writer
	hash [32]byte
	h    interface {
		io.Writer
		Sum(b []byte) []byte
	}
	size int64
}

func (s *passthroughSink) Write(chunk []byte) (int, error) {
	if _, err := s.h.Write(chunk); err != nil {
		return 0, err
	}
	n, err := s.w.Write(chunk)
	s.size += int64(n)
	return n, err
}

func (s *passthroughSink) Close() ([32]byte, int64, error) {
	copy(s.hash[:], s.h.Sum(nil))
	return s.hash, s.size, nil
}

// NewPassthroughSink wraps w so Pipeline can treat unencrypted writes
// uniformly with envelope-sealed ones; the returned digest equals the
// plaintext digest since no transform occurs.
func NewPassthroughSink(w io.Writer) Sink {
	return &passthroughSink{w: w, h: sha256.New()}
}

// Result is produced at EOF.
type Result struct {
	PlaintextDigest  [32]byte
	CiphertextDigest [32]byte
	PlaintextSize    int64
	CiphertextSize   int64
}

// Pipeline computes SHA-256 over plaintext while streaming every chunk
// through a Sink. It is restartable only from byte zero: callers needing
// to resume a partial upload must re-read the source from the start.
type Pipeline struct {
	ChunkSize int
}

// NewPipeline returns a Pipeline using DefaultChunkSize when size <= 0.
func NewPipeline(size int) *Pipeline {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Pipeline{ChunkSize: size}
}

// Run streams src through sink, returning the combined digest/size result.
// It fails with an errs.KindIO error on a read failure and an
// errs.KindCrypto error when sink reports an AEAD failure on Close.
func (p *Pipeline) Run(ctx context.Context, src io.Reader, sink Sink) (*Result, error) {
	plainHash := sha256.New()
	buf := make([]byte, p.ChunkSize)
	var plainSize int64

	log := logging.WithComponent("digest")

	for {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.KindCancelled, "digest.Run", ctx.Err())
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			plainSize += int64(n)
			if _, err := plainHash.Write(chunk); err != nil {
				return nil, errs.New(errs.KindIO, "digest.Run.plainHash", err)
			}
			if _, err := sink.Write(chunk); err != nil {
				return nil, errs.New(errs.KindCrypto, "digest.Run.sink", err)
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, errs.New(errs.KindIO, "digest.Run.read", readErr)
		}
	}

	cipherDigest, cipherSize, err := sink.Close()
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "digest.Run.sinkClose", err)
	}

	result := &Result{PlaintextSize: plainSize, CiphertextSize: cipherSize, CiphertextDigest: cipherDigest}
	copy(result.PlaintextDigest[:], plainHash.Sum(nil))

	log.Debug().
		Int64("plaintext_size", result.PlaintextSize).
		Int64("ciphertext_size", result.CiphertextSize).
		Msg("digest pipeline complete")

	return result, nil
}

// HashFile computes only the plaintext SHA-256 of a file, used by the
// backup engine's classification step (incremental-plus) before deciding
// whether an upload is needed at all.
func HashFile(ctx context.Context, src io.Reader) ([32]byte, int64, error) {
	h := sha256.New()
	var size int64
	buf := make([]byte, DefaultChunkSize)
	for {
		select {
		case <-ctx.Done():
			return [32]byte{}, 0, errs.New(errs.KindCancelled, "digest.HashFile", ctx.Err())
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			size += int64(n)
			if _, werr := h.Write(buf[:n]); werr != nil {
				return [32]byte{}, 0, errs.New(errs.KindIO, "digest.HashFile", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return [32]byte{}, 0, errs.New(errs.KindIO, "digest.HashFile", err)
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, size, nil
}
