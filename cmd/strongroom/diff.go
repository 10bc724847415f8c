// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/strongroom/internal/pfi"
)

var diffCmd = &cobra.Command{
	Use:   "diff [per-file:] <A> <B> [--action {remove-duplicates|move-duplicates} --md <dir>]",
	Short: "Report (and optionally act on) digests tracked in A but absent from B",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().String("action", "", "Action to apply to A-side duplicates (remove-duplicates, move-duplicates)")
	diffCmd.Flags().String("md", "", "Destination directory for --action move-duplicates")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	shape, locations := shapePrefix(args)
	if len(locations) != 2 {
		return fmt.Errorf("diff requires exactly two locations, A and B")
	}
	locA, locB := locations[0], locations[1]

	actionStr, _ := cmd.Flags().GetString("action")
	moveDir, _ := cmd.Flags().GetString("md")

	action := pfi.DiffAction(actionStr)
	switch action {
	case pfi.ActionNone, pfi.ActionRemoveDuplicates:
	case pfi.ActionMoveDuplicates:
		if moveDir == "" {
			return fmt.Errorf("--action move-duplicates requires --md <dir>")
		}
	default:
		return fmt.Errorf("--action must be %q or %q", pfi.ActionRemoveDuplicates, pfi.ActionMoveDuplicates)
	}

	sinkA, err := pfi.OpenSink(shape, locA)
	if err != nil {
		return fmt.Errorf("open sink for %s: %w", locA, err)
	}
	sinkB, err := pfi.OpenSink(shape, locB)
	if err != nil {
		return fmt.Errorf("open sink for %s: %w", locB, err)
	}

	result, err := pfi.Diff(cmd.Context(), sinkA, sinkB, pfi.DiffOptions{Action: action, MoveDir: moveDir})
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	if len(result.OnlyInA) == 0 {
		fmt.Println("All items in Location A were found in Location B.")
	} else {
		for _, entry := range result.OnlyInA {
			fmt.Printf("  only in A: %s\n", entry.RelPath)
		}
		fmt.Printf("%d file(s) in A not found in B\n", len(result.OnlyInA))
	}

	if len(result.Acted) > 0 {
		fmt.Printf("%s applied to %d duplicate(s)\n", action, len(result.Acted))
	}
	return nil
}
