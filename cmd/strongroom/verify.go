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

var verifyCmd = &cobra.Command{
	Use:   "verify <dest> backup:<label> files:<glob> [--compare]",
	Short: "Fetch and decrypt backed-up files, checking digests without writing a destination",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().Bool("compare", false, "Also hash the same-named local file and report a mismatch instead of failing outright")
	verifyCmd.Flags().String("compare-dir", ".", "Local directory the same-named files are compared against (with --compare)")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	dest := args[0]

	var label, glob string
	for _, arg := range args[1:] {
		if v, ok := parseSelector(arg, "backup"); ok {
			label = v
			continue
		}
		if v, ok := parseSelector(arg, "files"); ok {
			glob = v
			continue
		}
	}
	if label == "" {
		return fmt.Errorf("verify requires a backup:<label> selector")
	}

	compare, _ := cmd.Flags().GetBool("compare")
	compareDir, _ := cmd.Flags().GetString("compare-dir")

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

	mode := restore.ModeVerify
	destDir := ""
	if compare {
		mode = restore.ModeCompare
		destDir = compareDir
	}

	result, err := engine.Run(ctx, restore.Options{
		Label:   label,
		Glob:    glob,
		DestDir: destDir,
		Mode:    mode,
	})
	if err != nil {
		return err
	}

	return printRestoreSummary(result, mode)
}
