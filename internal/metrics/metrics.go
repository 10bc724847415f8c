// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the backup engine: per-run file accounting,
// provider transfer volume/latency, dedup and bitrot counters, and
// worker-pool saturation. Mirrors the teacher's promauto + thin
// Record*/Update* helper-function pattern.

var (
	// FilesDiscovered counts files seen during the discover phase of a run.
	FilesDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_files_discovered_total",
			Help: "Total number of source files discovered by a backup run",
		},
		[]string{"storage"},
	)

	// FilesHashed counts files that completed the digest pipeline.
	FilesHashed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_files_hashed_total",
			Help: "Total number of files hashed by a backup run",
		},
		[]string{"storage"},
	)

	// FilesUploaded counts files actually transferred to the provider
	// (excludes dedup references, which reuse an existing object).
	FilesUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_files_uploaded_total",
			Help: "Total number of files uploaded to storage by a backup run",
		},
		[]string{"storage"},
	)

	// DedupHits counts files whose content digest already existed in the
	// history DB and were recorded as a reference instead of re-uploaded.
	DedupHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_dedup_hits_total",
			Help: "Total number of files deduplicated against existing content",
		},
		[]string{"storage"},
	)

	// BitrotWarnings counts files whose stored object failed a digest
	// verification against the recorded plaintext digest.
	BitrotWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_bitrot_warnings_total",
			Help: "Total number of bitrot/corruption warnings raised during verify or restore",
		},
		[]string{"storage"},
	)

	// BytesTransferred tracks plaintext bytes moved to the provider.
	BytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_bytes_transferred_total",
			Help: "Total plaintext bytes uploaded to storage",
		},
		[]string{"storage"},
	)

	// UploadDuration records per-object upload latency.
	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strongroom_upload_duration_seconds",
			Help:    "Duration of a single object upload, including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"storage"},
	)

	// HashDuration records per-file digest-pipeline latency.
	HashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strongroom_hash_duration_seconds",
			Help:    "Duration of a single file's discover-to-digest pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"storage"},
	)

	// UploadRetries counts retry attempts made by the storage provider's
	// backoff policy.
	UploadRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_upload_retries_total",
			Help: "Total number of retried provider operations",
		},
		[]string{"storage", "reason"},
	)

	// FileErrors counts per-file failures accumulated into a
	// SpecificBackup's Errors list, which never abort the overall run.
	FileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongroom_file_errors_total",
			Help: "Total number of per-file errors encountered during a run",
		},
		[]string{"storage", "kind"},
	)

	// HashingPoolInFlight and UploadPoolInFlight expose worker-pool
	// saturation for the two-tier pipeline's backpressure policy.
	HashingPoolInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strongroom_hashing_pool_in_flight",
			Help: "Number of files currently being discovered or hashed",
		},
	)

	UploadPoolInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strongroom_upload_pool_in_flight",
			Help: "Number of objects currently being uploaded",
		},
	)

	// BackupDuration records the wall-clock duration of a complete run.
	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strongroom_backup_duration_seconds",
			Help:    "Duration of a complete backup run",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"storage", "type"},
	)
)

// RecordFileHashed records a successfully hashed file and its pipeline
// latency for storage.
func RecordFileHashed(storage string, duration time.Duration) {
	FilesHashed.WithLabelValues(storage).Inc()
	HashDuration.WithLabelValues(storage).Observe(duration.Seconds())
}

// RecordFileUploaded records a successful upload's latency and byte count.
func RecordFileUploaded(storage string, duration time.Duration, bytes int64) {
	FilesUploaded.WithLabelValues(storage).Inc()
	UploadDuration.WithLabelValues(storage).Observe(duration.Seconds())
	BytesTransferred.WithLabelValues(storage).Add(float64(bytes))
}

// RecordDedupHit records a file resolved by reference instead of upload.
func RecordDedupHit(storage string) {
	DedupHits.WithLabelValues(storage).Inc()
}

// RecordBitrotWarning records a digest-mismatch detection.
func RecordBitrotWarning(storage string) {
	BitrotWarnings.WithLabelValues(storage).Inc()
}

// RecordUploadRetry records one retry attempt, classified by reason
// (e.g. "throttled", "network", "5xx").
func RecordUploadRetry(storage, reason string) {
	UploadRetries.WithLabelValues(storage, reason).Inc()
}

// RecordFileError records a non-fatal per-file failure.
func RecordFileError(storage, kind string) {
	FileErrors.WithLabelValues(storage, kind).Inc()
}

// RecordBackupComplete records a finished run's wall-clock duration.
func RecordBackupComplete(storage, backupType string, duration time.Duration) {
	BackupDuration.WithLabelValues(storage, backupType).Observe(duration.Seconds())
}
