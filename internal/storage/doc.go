// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package storage implements the storage provider interface (C3): a
// narrow capability set of PUT/GET/LIST/DELETE plus container creation,
// shared uniformly by the filesystem and S3 backends. See provider.go for
// the interface, filesystem.go and s3.go for the two backends, and
// retry.go for the shared exponential-backoff-with-jitter multipart retry
// policy and circuit breaking.
package storage
