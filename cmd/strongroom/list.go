// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomtom215/strongroom/internal/backupinfo"
)

var listCmd = &cobra.Command{
	Use:   "list <dest> [backup:<glob>] [files:<glob>]",
	Short: "List committed backup labels, or the files within one",
	Args:  cobra.RangeArgs(1, 3),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	dest := args[0]

	var backupGlob, filesGlob string
	for _, arg := range args[1:] {
		if v, ok := parseSelector(arg, "backup"); ok {
			backupGlob = v
			continue
		}
		if v, ok := parseSelector(arg, "files"); ok {
			filesGlob = v
			continue
		}
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

	labels := repo.Store.ListBackupLabels()
	if backupGlob == "" && filesGlob == "" {
		for _, label := range labels {
			fmt.Println(label)
		}
		return nil
	}

	for _, label := range labels {
		if backupGlob != "" {
			ok, err := doublestar.Match(backupGlob, label)
			if err != nil {
				return fmt.Errorf("invalid backup glob %q: %w", backupGlob, err)
			}
			if !ok {
				continue
			}
		}

		files, err := repo.Store.FilesInBackup(label, filesGlob)
		if err != nil {
			return err
		}
		printFileRecords(label, files)
	}
	return nil
}

func printFileRecords(label string, files []backupinfo.FileRecord) {
	fmt.Printf("%s:\n", label)
	for _, rec := range files {
		marker := ""
		if rec.DedupRef != "" {
			marker = " (dedup)"
		}
		if rec.BitrotWarning {
			marker += " [bitrot warning]"
		}
		fmt.Printf("  %-10s %s%s\n", humanize.Bytes(uint64(rec.Size)), rec.SourcePath, marker)
	}
}
