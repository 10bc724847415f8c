// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package supervisor provides process supervision for the backup engine's
worker pools using suture v4.

This package implements a two-tier supervisor tree that manages the
lifecycle of a backup run's CPU-bound and I/O-bound workers. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes workers into two layers for failure isolation:

	RootSupervisor ("strongroom")
	├── HashingSupervisor ("hashing-pool")
	│   └── discover+digest workers (CPU-bound)
	└── UploadSupervisor ("upload-pool")
	    └── provider-upload workers (I/O-bound)

This hierarchy ensures that a provider outage stalling the upload pool
does not stop the hashing pool from continuing to discover and digest
files (backpressure, not stoppage, is applied instead — see
internal/backupengine), and a hashing-worker panic does not abort
in-flight uploads.

# Key Features

Automatic Restart:
  - Crashed workers are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Each layer has independent failure counting
  - Child supervisor failures don't propagate upward

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per worker
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs worker starts, stops, failures, and restarts via sutureslog

# Usage Example

	logger := slog.Default()
	config := supervisor.DefaultTreeConfig()

	tree, err := supervisor.NewSupervisorTree(logger, config)
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddHashingWorker(hashWorker)
	tree.AddUploadWorker(uploadWorker)

	ctx := context.Background()
	if err := tree.Serve(ctx); err != nil {
	    log.Printf("Supervisor stopped: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,          // Failures before backoff
	    FailureDecay:     30.0,         // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-worker shutdown timeout
	}

Default values match suture's production-ready defaults.

# Service Interface

Every worker must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: worker stopped cleanly, will not be restarted
  - Return error: worker crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("worker didn't stop: %v", svc)
	}

# See Also

  - internal/backupengine: worker implementations added to this tree
  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
