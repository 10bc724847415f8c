// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// ProviderDefaults holds the defaults a new StorageDefinition is created
// with when the CLI doesn't override them; it is never itself persisted
// as part of a StorageDefinition document.
type ProviderDefaults struct {
	Kind     string `koanf:"kind" validate:"oneof=filesystem object-storage"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// RuntimeConfig is the process-level configuration for one invocation of
// the backup/restore/pfi engines: worker pool sizing, chunk/multipart
// thresholds, retry behavior, and provider defaults. Generalized from the
// teacher's media-service Config struct onto the backup domain's much
// smaller set of process knobs; a StorageDefinition's own schema-versioned
// JSON document (§4.5) is never koanf-managed.
type RuntimeConfig struct {
	HashingWorkers          int           `koanf:"hashing_workers" validate:"min=0,max=256"`
	UploadWorkers           int           `koanf:"upload_workers" validate:"min=1,max=256"`
	UploadRatePerSecond     float64       `koanf:"upload_rate_per_second" validate:"min=0"`
	ChunkSizeBytes          int           `koanf:"chunk_size_bytes" validate:"min=4096"`
	PartSizeBytes           int64         `koanf:"part_size_bytes" validate:"min=5242880"`
	MultipartThresholdBytes int64         `koanf:"multipart_threshold_bytes" validate:"min=0"`
	MaxRetryElapsed         time.Duration `koanf:"max_retry_elapsed" validate:"min=0"`
	DetectBitrot            bool          `koanf:"detect_bitrot"`
	DefaultChangeDetection  string        `koanf:"default_change_detection" validate:"oneof=datesize digest"`
	LogLevel                string        `koanf:"log_level" validate:"oneof=debug info warn error"`

	Provider ProviderDefaults `koanf:"provider"`
}

// DefaultRuntimeConfig returns the struct-literal defaults applied before
// any file or environment layer, matching §5's connection-budget default
// of 4-8 I/O workers and C1's 1 MiB chunk size.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		HashingWorkers:          0, // 0 = runtime.GOMAXPROCS(0), resolved by the caller
		UploadWorkers:           6,
		UploadRatePerSecond:     0, // 0 disables the limiter
		ChunkSizeBytes:          1 << 20,
		PartSizeBytes:           8 << 20,
		MultipartThresholdBytes: 16 << 20,
		MaxRetryElapsed:         0, // 0 = unbounded, per the Open Questions §9 decision
		DetectBitrot:            true,
		DefaultChangeDetection:  "datesize",
		LogLevel:                "info",
		Provider: ProviderDefaults{
			Kind: "filesystem",
		},
	}
}
