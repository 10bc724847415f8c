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

var saveDBCmd = &cobra.Command{
	Use:   "save-db --db <path> <location>...",
	Short: "Materialize one or more locations' current digest state into a single database file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSaveDB,
}

func init() {
	saveDBCmd.Flags().String("db", "", "Output database file path (required)")
	_ = saveDBCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(saveDBCmd)
}

func runSaveDB(cmd *cobra.Command, args []string) error {
	destPath, _ := cmd.Flags().GetString("db")

	if err := pfi.SaveDB(args, destPath); err != nil {
		return fmt.Errorf("save-db: %w", err)
	}

	fmt.Printf("saved %d location(s) to %s\n", len(args), destPath)
	return nil
}
