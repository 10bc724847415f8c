// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package metrics provides Prometheus metrics collection for the backup
engine: per-run file accounting, provider transfer volume and latency,
dedup and bitrot counters, and worker-pool saturation.

# Metrics Endpoint

Every metric is registered with the Prometheus default registry through
promauto. cmd/strongroom does not serve a metrics endpoint; a program
embedding these packages can expose the registry with promhttp.Handler().

# Available Metrics

File accounting (counters, labeled by storage):
  - strongroom_files_discovered_total
  - strongroom_files_hashed_total
  - strongroom_files_uploaded_total
  - strongroom_dedup_hits_total
  - strongroom_bitrot_warnings_total
  - strongroom_file_errors_total (+ kind label matching internal/errs.Kind)

Transfer volume and latency:
  - strongroom_bytes_transferred_total (counter)
  - strongroom_upload_duration_seconds (histogram)
  - strongroom_hash_duration_seconds (histogram)
  - strongroom_upload_retries_total (+ reason label)

Worker-pool saturation (gauges):
  - strongroom_hashing_pool_in_flight
  - strongroom_upload_pool_in_flight

Run summary:
  - strongroom_backup_duration_seconds (+ type label: full, incremental,
    incremental-plus, incremental-plus-dedup)

# Usage Example

	metrics.RecordFileHashed("vault", elapsed)
	metrics.RecordFileUploaded("vault", elapsed, size)
	metrics.RecordDedupHit("vault")
	metrics.RecordBackupComplete("vault", "incremental", runDuration)

# Thread Safety

All recording functions are thread-safe; the Prometheus client library
handles synchronization internally, so they may be called concurrently
from both the hashing pool and the upload pool.
*/
package metrics
