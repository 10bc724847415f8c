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

var updateDigestsCmd = &cobra.Command{
	Use:   "update-digests [--cdt {datesize|digest}] [per-file:|pf:] <location>...",
	Short: "Record fresh content digests for one or more locations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpdateDigests,
}

func init() {
	updateDigestsCmd.Flags().String("cdt", string(pfi.DetectDatesize), "Change-detection type (datesize, digest)")
	rootCmd.AddCommand(updateDigestsCmd)
}

// shapePrefix strips a leading "per-file:" or "pf:" token shared by every
// location in the invocation, per §4.8's per-dir/per-file duality; when
// absent, every location uses the per-dir shape.
func shapePrefix(args []string) (shape string, rest []string) {
	if len(args) == 0 {
		return pfi.ShapeDir, args
	}
	switch args[0] {
	case "per-file:", "pf:":
		return pfi.ShapeSidecar, args[1:]
	default:
		return pfi.ShapeDir, args
	}
}

func runUpdateDigests(cmd *cobra.Command, args []string) error {
	cdtStr, _ := cmd.Flags().GetString("cdt")
	cdt := pfi.ChangeDetectionType(cdtStr)
	if cdt != pfi.DetectDatesize && cdt != pfi.DetectDigest {
		return fmt.Errorf("--cdt must be %q or %q", pfi.DetectDatesize, pfi.DetectDigest)
	}

	shape, locations := shapePrefix(args)
	if len(locations) == 0 {
		return fmt.Errorf("update-digests requires at least one location")
	}

	ctx := cmd.Context()
	var totalScanned, totalUpdated int
	var sneaky []string

	for _, loc := range locations {
		sink, err := pfi.OpenSink(shape, loc)
		if err != nil {
			return fmt.Errorf("open sink for %s: %w", loc, err)
		}

		result, err := pfi.UpdateDigests(ctx, sink, pfi.UpdateOptions{ChangeDetection: cdt})
		if err != nil {
			return fmt.Errorf("update-digests %s: %w", loc, err)
		}

		totalScanned += result.Scanned
		totalUpdated += result.Updated
		sneaky = append(sneaky, result.SneakyCorruptions...)
	}

	fmt.Printf("scanned %d, updated %d\n", totalScanned, totalUpdated)
	for _, rel := range sneaky {
		fmt.Printf("  SNEAKY CORRUPTION %s: digest changed despite unchanged size and mtime\n", rel)
	}
	if len(sneaky) > 0 {
		return fmt.Errorf("%d sneaky corruption(s) detected", len(sneaky))
	}
	return nil
}
