// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"bytes"
	"context"
	"crypto/cipher"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/envelope"
	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
	"github.com/tomtom215/strongroom/internal/metrics"
	"github.com/tomtom215/strongroom/internal/storage"
	"github.com/tomtom215/strongroom/internal/supervisor"
)

// historyObjectID is the fixed, overwritten-in-place object the history
// DB's self-backup is written under. selfBackup rewrites it wholesale on
// every run without classifying it against a prior digest, so it never
// produces a bitrot warning.
const historyObjectID = "history/db.sealed"

// Engine runs backups against one storage definition.
type Engine struct {
	Store     *backupinfo.Store
	Provider  storage.Provider
	Container storage.Container
	AEAD      cipher.AEAD
}

// Run discovers, classifies, hashes, dedups, seals, and uploads every file
// under opts.SourceRoots, commits the resulting SpecificBackup to the
// history DB, and self-backs-up the updated history DB.
func (e *Engine) Run(ctx context.Context, opts Options) (*backupinfo.SpecificBackup, error) {
	if opts.HashingWorkers <= 0 {
		opts.HashingWorkers = DefaultHashingWorkers
	}
	if opts.UploadWorkers <= 0 {
		opts.UploadWorkers = DefaultUploadWorkers
	}

	log := logging.WithComponent("backupengine")
	start := time.Now()

	backupType := opts.RequestedType
	if backupType == "" {
		if len(e.Store.ListBackupLabels()) == 0 {
			backupType = backupinfo.BackupFull
		} else {
			backupType = backupinfo.BackupIncremental
		}
	}

	files, err := discover(opts.SourceRoots, opts.ExcludeGlobs)
	if err != nil {
		return nil, err
	}
	metrics.FilesDiscovered.WithLabelValues(opts.Storage).Add(float64(len(files)))

	plans := make([]planned, 0, len(files))
	for _, f := range files {
		prior, _ := e.Store.LastRecordForPath(f.sourcePath)
		plans = append(plans, classify(f, prior, backupType))
	}

	records, fileErrs := e.runPipeline(ctx, plans, opts)

	for _, rec := range records {
		log.Info().
			Str("path", rec.SourcePath).
			Hex("plaintext_sha256", rec.PlaintextDigest[:]).
			Hex("ciphertext_sha256", rec.CiphertextDigest[:]).
			Msg("file recorded")
	}

	// Bitrot warnings are promoted to per-run errors in the summary (§7),
	// so a corrupted-but-undetected-by-mtime file still fails the run's
	// exit code even though its record was committed successfully.
	for _, rec := range records {
		if rec.BitrotWarning {
			fileErrs = append(fileErrs, backupinfo.FileError{
				Path: rec.SourcePath,
				Kind: string(errs.KindClassification),
				Err:  "sneaky corruption: content changed but size and modification time did not",
			})
		}
	}

	backup := &backupinfo.SpecificBackup{
		Label:       opts.Label,
		StartedAt:   start.UTC(),
		FinishedAt:  time.Now().UTC(),
		Type:        backupType,
		SourceRoots: opts.SourceRoots,
		Files:       records,
		Errors:      fileErrs,
	}

	if err := e.Store.CommitBackup(*backup); err != nil {
		return nil, err
	}

	if err := e.selfBackup(ctx, opts); err != nil {
		log.Warn().Err(err).Msg("history DB self-backup failed")
	}

	metrics.RecordBackupComplete(opts.Storage, string(backupType), time.Since(start))
	log.Info().
		Str("label", backup.Label).
		Str("type", string(backupType)).
		Int("files", len(records)).
		Int("errors", len(fileErrs)).
		Dur("elapsed", time.Since(start)).
		Msg("backup run complete")

	return backup, nil
}

// runPipeline wires the two-tier worker pool: hashingWorkers feed either
// uploadWorkers (sealed bytes) or the result collector directly (carried
// forward / dedup / failed), uploadWorkers feed the result collector.
func (e *Engine) runPipeline(ctx context.Context, plans []planned, opts Options) ([]backupinfo.FileRecord, []backupinfo.FileError) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return nil, []backupinfo.FileError{{Kind: string(errs.KindIO), Err: err.Error()}}
	}

	planCh := make(chan planned, len(plans))
	uploadCh := make(chan sealedResult, opts.UploadWorkers*2)
	doneCh := make(chan sealedResult, len(plans))

	sem := semaphore.NewWeighted(int64(opts.UploadWorkers * 2))

	var limiter *rate.Limiter
	if opts.UploadRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.UploadRatePerSecond), opts.UploadWorkers)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := tree.ServeBackground(runCtx)

	for i := 0; i < opts.HashingWorkers; i++ {
		tree.AddHashingWorker(&hashingWorker{
			in: planCh, upload: uploadCh, done: doneCh,
			store: e.Store, aead: e.AEAD, opts: opts, sem: sem,
		})
	}
	for i := 0; i < opts.UploadWorkers; i++ {
		tree.AddUploadWorker(&uploadWorker{
			in: uploadCh, done: doneCh,
			container: e.Container, provider: e.Provider, opts: opts, sem: sem, limiter: limiter,
		})
	}

	for _, p := range plans {
		planCh <- p
	}
	close(planCh)

	records := make([]backupinfo.FileRecord, 0, len(plans))
	var fileErrs []backupinfo.FileError

collect:
	for i := 0; i < len(plans); i++ {
		select {
		case res := <-doneCh:
			if res.fail != nil {
				metrics.RecordFileError(opts.Storage, res.fail.Kind)
				fileErrs = append(fileErrs, *res.fail)
				continue
			}
			records = append(records, res.record)
		case <-ctx.Done():
			break collect
		}
	}

	cancel()
	<-errCh

	return records, fileErrs
}

// selfBackup seals (when opts.Encrypt) the current (just-committed)
// history DB JSON and overwrites the fixed history object, so a restore
// can always recover the backup catalog from the same container it backs
// up into.
func (e *Engine) selfBackup(ctx context.Context, opts Options) error {
	data, err := e.Store.MarshalHistory()
	if err != nil {
		return err
	}

	payload := data
	if opts.Encrypt {
		sealed, err := envelope.Seal(e.AEAD, data)
		if err != nil {
			return err
		}
		payload = sealed
	}

	return e.Provider.PutObject(ctx, e.Container, historyObjectID, bytes.NewReader(payload), int64(len(payload)))
}
