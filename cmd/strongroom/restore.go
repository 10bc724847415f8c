// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/strongroom/internal/restore"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <dest> backup:{<label>|last} files:<glob> <out_dir>",
	Short: "Restore files from a committed backup into a destination tree",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	dest := args[0]

	var label, glob, outDir string
	for _, arg := range args[1:] {
		if v, ok := parseSelector(arg, "backup"); ok {
			label = v
			continue
		}
		if v, ok := parseSelector(arg, "files"); ok {
			glob = v
			continue
		}
		outDir = arg
	}
	if label == "" {
		return fmt.Errorf("restore requires a backup:<label> selector")
	}
	if outDir == "" {
		return fmt.Errorf("restore requires an output directory")
	}

	ctx := cmd.Context()
	cfg, err := runtimeConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(ctx, dest, cfg)
	if err != nil {
		return err
	}
	defer repo.Close() //nolint:errcheck

	engine := &restore.Engine{
		Store:     repo.Store,
		Provider:  repo.Provider,
		Container: repo.Container,
		AEAD:      repo.AEAD,
	}

	result, err := engine.Run(ctx, restore.Options{
		Label:   label,
		Glob:    glob,
		DestDir: outDir,
		Mode:    restore.ModeRestore,
	})
	if err != nil {
		return err
	}

	return printRestoreSummary(result, restore.ModeRestore)
}

func printRestoreSummary(result *restore.Result, mode restore.Mode) error {
	var failed int
	for _, fr := range result.Files {
		switch {
		case fr.Err != nil:
			failed++
			fmt.Printf("  ERROR %s: %v\n", fr.Record.SourcePath, fr.Err)
		case mode == restore.ModeCompare && !fr.CompareMatch:
			failed++
			fmt.Printf("  MISMATCH %s\n", fr.Record.SourcePath)
		case fr.BitrotWarning:
			fmt.Printf("  WARNING  %s: bitrot warning on source record\n", fr.Record.SourcePath)
		}
	}

	fmt.Printf("backup %q: %d files, %d failed\n", result.Label, len(result.Files), failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
