// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFileHashed(t *testing.T) {
	before := testutil.ToFloat64(FilesHashed.WithLabelValues("vault"))
	RecordFileHashed("vault", 10*time.Millisecond)
	after := testutil.ToFloat64(FilesHashed.WithLabelValues("vault"))

	if after != before+1 {
		t.Errorf("expected FilesHashed to increment by 1, got %f -> %f", before, after)
	}
}

func TestRecordFileUploaded(t *testing.T) {
	beforeCount := testutil.ToFloat64(FilesUploaded.WithLabelValues("vault"))
	beforeBytes := testutil.ToFloat64(BytesTransferred.WithLabelValues("vault"))

	RecordFileUploaded("vault", 50*time.Millisecond, 4096)

	if got := testutil.ToFloat64(FilesUploaded.WithLabelValues("vault")); got != beforeCount+1 {
		t.Errorf("expected FilesUploaded to increment by 1, got %f", got)
	}
	if got := testutil.ToFloat64(BytesTransferred.WithLabelValues("vault")); got != beforeBytes+4096 {
		t.Errorf("expected BytesTransferred to increase by 4096, got %f -> %f", beforeBytes, got)
	}
}

func TestRecordDedupHit(t *testing.T) {
	before := testutil.ToFloat64(DedupHits.WithLabelValues("vault"))
	RecordDedupHit("vault")
	after := testutil.ToFloat64(DedupHits.WithLabelValues("vault"))

	if after != before+1 {
		t.Errorf("expected DedupHits to increment by 1, got %f -> %f", before, after)
	}
}

func TestRecordBitrotWarning(t *testing.T) {
	before := testutil.ToFloat64(BitrotWarnings.WithLabelValues("vault"))
	RecordBitrotWarning("vault")
	after := testutil.ToFloat64(BitrotWarnings.WithLabelValues("vault"))

	if after != before+1 {
		t.Errorf("expected BitrotWarnings to increment by 1, got %f -> %f", before, after)
	}
}

func TestRecordUploadRetry(t *testing.T) {
	before := testutil.ToFloat64(UploadRetries.WithLabelValues("vault", "throttled"))
	RecordUploadRetry("vault", "throttled")
	after := testutil.ToFloat64(UploadRetries.WithLabelValues("vault", "throttled"))

	if after != before+1 {
		t.Errorf("expected UploadRetries to increment by 1, got %f -> %f", before, after)
	}
}

func TestRecordFileError(t *testing.T) {
	before := testutil.ToFloat64(FileErrors.WithLabelValues("vault", "io-error"))
	RecordFileError("vault", "io-error")
	after := testutil.ToFloat64(FileErrors.WithLabelValues("vault", "io-error"))

	if after != before+1 {
		t.Errorf("expected FileErrors to increment by 1, got %f -> %f", before, after)
	}
}

func TestRecordBackupComplete(t *testing.T) {
	// Histograms don't expose a simple counter via testutil.ToFloat64, so
	// just confirm the call doesn't panic with a fresh label pair.
	RecordBackupComplete("vault-complete-test", "full", 2*time.Second)
}

func TestPoolGauges(t *testing.T) {
	HashingPoolInFlight.Set(3)
	if got := testutil.ToFloat64(HashingPoolInFlight); got != 3 {
		t.Errorf("expected HashingPoolInFlight 3, got %f", got)
	}

	UploadPoolInFlight.Set(2)
	if got := testutil.ToFloat64(UploadPoolInFlight); got != 2 {
		t.Errorf("expected UploadPoolInFlight 2, got %f", got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordFileHashed("concurrent", time.Millisecond)
			RecordFileUploaded("concurrent", time.Millisecond, 1)
			RecordDedupHit("concurrent")
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(FilesHashed.WithLabelValues("concurrent")); got != 50 {
		t.Errorf("expected 50 hashed files recorded, got %f", got)
	}
}
