// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"
	"crypto/cipher"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/config"
	"github.com/tomtom215/strongroom/internal/envelope"
	"github.com/tomtom215/strongroom/internal/logging"
	"github.com/tomtom215/strongroom/internal/secrets"
	"github.com/tomtom215/strongroom/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:     "strongroom",
	Short:   "Content-addressed backup, restore, and persistent-file-info engine",
	Version: "dev",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Emit logs as JSON (false for console-formatted output)")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	cfg := logging.DefaultConfig()
	cfg.Level = logLevel
	if !logJSON {
		cfg.Format = "console"
	}
	logging.Init(cfg)
}

// runtimeConfig loads the process-level RuntimeConfig once per invocation;
// every subcommand consults it for worker counts, rate limits, and retry
// caps rather than hardcoding defaults.
func runtimeConfig() (*config.RuntimeConfig, error) {
	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		return nil, fmt.Errorf("load runtime config: %w", err)
	}
	return cfg, nil
}

// repository bundles everything a backup/restore/verify/list run needs
// against one resolved destination.
type repository struct {
	Name      string
	ConfigDir string
	Def       *backupinfo.StorageDefinition
	Store     *backupinfo.Store
	Provider  storage.Provider
	Container storage.Container
	AEAD      cipher.AEAD
}

func (r *repository) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// storageDefConfigDir resolves where a destination's StorageDefinition
// document and history DB live: `storage:<name>` resolves under the
// process-user config directory (cloud definitions, possibly shared
// across repositories), anything else is a local filesystem path that
// owns its own configuration document next to the repository, per §3's
// "persisted in a configuration document next to the repository
// (filesystem) or in a process-user config directory (cloud)".
func storageDefConfigDir(dest string) (configDir, fallbackName string) {
	if name, ok := strings.CutPrefix(dest, "storage:"); ok {
		return filepath.Join(userConfigRoot(), name), name
	}
	return dest, filepath.Base(filepath.Clean(dest))
}

func userConfigRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "strongroom", "storage-defs")
}

// openRepository loads an existing StorageDefinition for dest and wires
// its provider, history store, and AEAD, ready for a backup/restore/
// verify/list run. It never creates a StorageDefinition; that is
// `creds create-storage-def`'s job alone.
func openRepository(ctx context.Context, dest string, cfg *config.RuntimeConfig) (*repository, error) {
	configDir, _ := storageDefConfigDir(dest)

	def, err := backupinfo.LoadStorageDefinition(configDir)
	if err != nil {
		return nil, fmt.Errorf("no storage definition at %s (run `strongroom creds create-storage-def` first): %w", dest, err)
	}

	store, err := backupinfo.Open(configDir, def.Name)
	if err != nil {
		return nil, err
	}

	secretStore, err := secrets.NewPlatformStore("strongroom")
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}
	mgr := secrets.NewManager(secretStore)

	var aead cipher.AEAD
	if def.EncryptionEnabled {
		key, err := mgr.Unlock(def.Name, "")
		if err != nil {
			store.Close() //nolint:errcheck
			return nil, fmt.Errorf("unlock encryption key for %q: %w", def.Name, err)
		}
		aead, err = envelope.NewAEAD(key[:])
		if err != nil {
			store.Close() //nolint:errcheck
			return nil, err
		}
	}

	provider, container, err := openProvider(ctx, configDir, def, mgr, cfg)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}

	return &repository{
		Name:      def.Name,
		ConfigDir: configDir,
		Def:       def,
		Store:     store,
		Provider:  provider,
		Container: container,
		AEAD:      aead,
	}, nil
}

// openProvider constructs the storage.Provider named by def.Provider.
// Filesystem providers are rooted at configDir (so a local destination
// owns both its configuration and its object tree); object-storage
// providers are constructed from the provider secret stashed by `creds
// create-storage-def` and retry/circuit-break per RuntimeConfig.
func openProvider(ctx context.Context, configDir string, def *backupinfo.StorageDefinition, mgr *secrets.Manager, cfg *config.RuntimeConfig) (storage.Provider, storage.Container, error) {
	switch def.Provider {
	case backupinfo.ProviderFilesystem:
		p, err := storage.NewFilesystemProvider(configDir)
		return p, storage.Container(def.Container), err

	case backupinfo.ProviderObjectStorage:
		secret, err := mgr.ProviderSecret(def.Name)
		if err != nil {
			return nil, "", fmt.Errorf("provider secret for %q: %w", def.Name, err)
		}
		creds, err := parseS3Secret(secret, def)
		if err != nil {
			return nil, "", err
		}
		retry := storage.RetryConfig{MaxElapsed: cfg.MaxRetryElapsed}
		p, err := storage.NewS3Provider(ctx, creds, retry)
		return p, storage.Container(def.Container), err

	default:
		return nil, "", fmt.Errorf("storage definition %q: unknown provider kind %q", def.Name, def.Provider)
	}
}

// parseS3Secret decodes the "key=<k>,secret=<s>[,project=<p>]" opaque
// document StoreProviderSecret persisted, per internal/secrets' own
// doc-comment on StoreProviderSecret.
func parseS3Secret(secret string, def *backupinfo.StorageDefinition) (storage.S3Credentials, error) {
	fields := map[string]string{}
	for _, part := range strings.Split(secret, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields[kv[0]] = kv[1]
	}
	if fields["key"] == "" || fields["secret"] == "" {
		return storage.S3Credentials{}, fmt.Errorf("provider secret for %q is missing key/secret", def.Name)
	}
	return storage.S3Credentials{
		AccessKeyID:     fields["key"],
		SecretAccessKey: fields["secret"],
		Region:          def.Region,
		Endpoint:        def.Endpoint,
	}, nil
}

// parseSelector splits a `backup:<glob>` or `files:<glob>` CLI token,
// returning ok=false if prefix doesn't match.
func parseSelector(arg, prefix string) (value string, ok bool) {
	v, ok := strings.CutPrefix(arg, prefix+":")
	return v, ok
}
