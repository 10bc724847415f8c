// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command strongroom is the CLI surface of §6: backup, restore, verify,
// list, creds, update-digests, save-db, and diff against a local or cloud
// storage definition. Generalized from an example project's single-binary
// cobra.Command tree (cmd/warren/main.go in the wider example pack) onto
// the backup-engine's narrower, destination-centric command surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
