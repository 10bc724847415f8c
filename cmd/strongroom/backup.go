// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomtom215/strongroom/internal/backupengine"
	"github.com/tomtom215/strongroom/internal/backupinfo"
)

var backupCmd = &cobra.Command{
	Use:   "backup [flags] <src>... <dest>",
	Short: "Back up one or more source trees into a storage definition",
	Long: `backup discovers every file under the given source trees, classifies
each against the destination's backup history, hashes and (optionally
encrypts and deduplicates) changed files, uploads them, and commits a new
labeled backup snapshot.

Examples:
  strongroom backup --full /data /srv ./backups
  strongroom backup --incremental-plus --dedup digest /data storage:offsite`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().Bool("full", false, "Force a full backup")
	backupCmd.Flags().Bool("incremental", false, "Incremental backup (datesize classification)")
	backupCmd.Flags().Bool("incremental-plus", false, "Incremental-plus backup (digest classification, bitrot-aware)")
	backupCmd.Flags().String("dedup", "", "Deduplication mode (only \"digest\" is supported, requires --incremental-plus)")
	backupCmd.Flags().Bool("no-detect-bitrot", false, "Disable sneaky-corruption detection under --incremental-plus")
	backupCmd.Flags().StringSlice("exclude", nil, "Glob(s) to exclude from discovery")
	backupCmd.Flags().String("label", "", "Backup label (default <storage-name>-<UTC timestamp>)")

	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dest := args[len(args)-1]
	sources := args[:len(args)-1]

	full, _ := cmd.Flags().GetBool("full")
	incremental, _ := cmd.Flags().GetBool("incremental")
	incrementalPlus, _ := cmd.Flags().GetBool("incremental-plus")
	dedup, _ := cmd.Flags().GetString("dedup")
	noDetectBitrot, _ := cmd.Flags().GetBool("no-detect-bitrot")
	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	label, _ := cmd.Flags().GetString("label")

	if dedup != "" && dedup != "digest" {
		return fmt.Errorf("--dedup only supports \"digest\"")
	}
	if dedup != "" && !incrementalPlus {
		return fmt.Errorf("--dedup requires --incremental-plus")
	}

	var backupType backupinfo.BackupType
	switch {
	case full:
		backupType = backupinfo.BackupFull
	case incrementalPlus && dedup == "digest":
		backupType = backupinfo.BackupIncrementalPlusDedup
	case incrementalPlus:
		backupType = backupinfo.BackupIncrementalPlus
	case incremental:
		backupType = backupinfo.BackupIncremental
	}

	cfg, err := runtimeConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(ctx, dest, cfg)
	if err != nil {
		return err
	}
	defer repo.Close() //nolint:errcheck

	if label == "" {
		label = fmt.Sprintf("%s-%s", repo.Name, time.Now().UTC().Format("20060102-150405"))
	}

	engine := &backupengine.Engine{
		Store:     repo.Store,
		Provider:  repo.Provider,
		Container: repo.Container,
		AEAD:      repo.AEAD,
	}

	hashingWorkers := cfg.HashingWorkers
	if hashingWorkers <= 0 {
		hashingWorkers = runtime.GOMAXPROCS(0)
	}

	opts := backupengine.Options{
		Storage:             repo.Name,
		SourceRoots:         sources,
		ExcludeGlobs:        excludes,
		Label:               label,
		RequestedType:       backupType,
		HashingWorkers:      hashingWorkers,
		UploadWorkers:       cfg.UploadWorkers,
		UploadRatePerSecond: cfg.UploadRatePerSecond,
		Encrypt:             repo.Def.EncryptionEnabled,
		DetectBitrot:        cfg.DetectBitrot && !noDetectBitrot,
	}

	result, err := engine.Run(ctx, opts)
	if err != nil {
		return err
	}

	printBackupSummary(result)
	if len(result.Errors) > 0 {
		return fmt.Errorf("backup %q completed with %d error(s)", result.Label, len(result.Errors))
	}
	return nil
}

func printBackupSummary(backup *backupinfo.SpecificBackup) {
	var totalBytes int64
	for _, rec := range backup.Files {
		totalBytes += rec.Size
	}

	fmt.Printf("backup %q (%s): %d files, %s, %d error(s), elapsed %s\n",
		backup.Label, backup.Type, len(backup.Files),
		humanize.Bytes(uint64(totalBytes)), len(backup.Errors),
		backup.FinishedAt.Sub(backup.StartedAt).Round(time.Millisecond))

	for _, fe := range backup.Errors {
		fmt.Printf("  ERROR %-24s %s: %s\n", fe.Kind, fe.Path, fe.Err)
	}
}
