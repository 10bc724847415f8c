// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # Helpers
//
// containers.go, built only under the integration build tag, provides
// SkipIfNoDocker/IsDockerAvailable, a testing.T-backed ContainerLogger,
// WaitForReady polling, CleanupContainer, and GetContainerInfo:
//
//	func TestWithContainer(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    // start a container with testcontainers-go, then:
//	    defer testinfra.CleanupContainer(t, ctx, container)
//	}
//
// No test in this repository imports the package.
//
// # Benefits Over Mocks
//
// Using real containers provides several advantages:
//   - Tests validate actual API contracts
//   - No mock drift (mocks getting out of sync with real API)
//   - Tests run against production-equivalent services
//   - Reduces maintenance burden (one seed database vs many mock functions)
//
// # CI Considerations
//
// These tests require Docker and network access. In CI:
//   - Self-hosted runners have Docker pre-installed
//   - Container images are cached between runs
//   - Tests are skipped gracefully if Docker is unavailable
//
// # Network Requirements
//
// First run may need to download container images. Subsequent runs use cached images.
package testinfra
