// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package config provides process-level runtime configuration for the
// backup engine: worker pool sizes, chunk and multipart thresholds, retry
// caps, and provider defaults. It does not manage StorageDefinition
// documents — those are schema-versioned JSON owned by internal/backupinfo
// and internal/secrets, loaded per-repository rather than per-process.
//
// RuntimeConfig is loaded through koanf v2 with three layers, lowest
// precedence first:
//
//  1. Struct defaults (DefaultRuntimeConfig)
//  2. An optional YAML/JSON file (STRONGROOM_CONFIG_PATH env var, or one
//     of DefaultConfigPaths)
//  3. Environment variables (STRONGROOM_ prefixed)
//
// Credential and key encryption (wrapping exported bundles, sealing
// envelope key material) is unrelated to RuntimeConfig and lives in
// internal/secrets (C4) and internal/envelope (C2) instead.
package config
