// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package storage implements the narrow object-storage provider interface
// (C3) shared by the filesystem and S3 backends: PUT/GET/LIST/DELETE plus
// multipart upload with infinite exponential-backoff retry on transient
// failures. A retried upload starts again from the beginning of the body;
// an interrupted multipart session is not resumed. Generalized from internal/backup/manager.go's
// atomic temp-file + fsync + rename commit pattern, extended to arbitrary
// object bodies rather than just metadata files.
package storage

import (
	"context"
	"io"
)

// Container names a bucket (object-storage) or a root directory
// (filesystem) within a provider.
type Container string

// ObjectID is the content-addressed identifier assigned to a StoredObject,
// following the `<digest-prefix>/<ciphertext-digest>` layout of §6.
type ObjectID string

// ListEntry is one item yielded by ListObjects.
type ListEntry struct {
	ID   ObjectID
	Size int64
}

// Provider is the capability set every backend (filesystem, S3, and any
// future object-storage backend) implements uniformly; see DESIGN NOTES
// §9 ("libcloud-style polymorphism ... becomes the capability set").
type Provider interface {
	// PutObject uploads stream (exactly expectedSize bytes) under id.
	// Implementations that support multipart upload (mandatory for
	// object-storage backends) split large objects internally; the
	// operation is atomic from the caller's perspective.
	PutObject(ctx context.Context, container Container, id ObjectID, stream io.Reader, expectedSize int64) error

	// GetObject returns a readable stream for id. The caller must Close
	// the returned ReadCloser. Returns errs.ErrNotFound if absent.
	GetObject(ctx context.Context, container Container, id ObjectID) (io.ReadCloser, error)

	// ListObjects lazily yields every object id under prefix, in
	// provider-defined order, stopping early if yield returns false.
	ListObjects(ctx context.Context, container Container, prefix string, yield func(ListEntry) bool) error

	// DeleteObject removes id. Returns errs.ErrNotFound if absent.
	DeleteObject(ctx context.Context, container Container, id ObjectID) error

	// CreateContainer creates container, optionally appending a numeric
	// suffix to baseName to find an unused name when autoFindSuffix is
	// set (cloud bucket namespaces are global). Returns the actual name
	// created.
	CreateContainer(ctx context.Context, baseName string, autoFindSuffix bool) (Container, error)

	// Kind identifies the provider for StorageDefinition metadata and logs.
	Kind() string
}

// PartSize is the default multipart chunk size for object-storage
// backends (within the provider-recommended 4-16 MiB range).
const PartSize = 8 << 20 // 8 MiB

// MultipartThreshold is not consulted by either provider: S3Provider's
// upload manager switches to multipart once a body exceeds PartSize.
const MultipartThreshold = 16 << 20 // 16 MiB
