// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/strongroom/internal/validation"
)

// DefaultConfigPaths lists the paths searched for a runtime config file,
// in order of priority; the first one found is used.
var DefaultConfigPaths = []string{
	"strongroom.yaml",
	"strongroom.yml",
	filepath.Join(os.Getenv("HOME"), ".config", "strongroom", "config.yaml"),
}

// ConfigPathEnvVar overrides the search above with an exact path.
const ConfigPathEnvVar = "STRONGROOM_CONFIG_PATH"

// envPrefix is stripped from every STRONGROOM_-prefixed environment
// variable before it's treated as a koanf path, e.g.
// STRONGROOM_UPLOAD_WORKERS -> upload_workers.
const envPrefix = "STRONGROOM_"

// LoadRuntimeConfig loads a RuntimeConfig with three layers, lowest
// precedence first: struct defaults, an optional YAML file, then
// environment variables. Generalized from the teacher's
// LoadWithKoanf: same three-layer koanf.Load sequence, minus the
// teacher's legacy-env-name remapping table, since every strongroom
// environment variable already matches its koanf path one-to-one.
func LoadRuntimeConfig() (*RuntimeConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultRuntimeConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &RuntimeConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runtime config: %w", err)
	}

	if verr := validation.ValidateStruct(cfg); verr != nil {
		return nil, fmt.Errorf("runtime config validation failed: %w", verr)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps STRONGROOM_UPLOAD_WORKERS -> upload_workers and
// STRONGROOM_PROVIDER_KIND -> provider.kind. env.Provider calls this with
// the raw variable name still carrying envPrefix, matching the teacher's
// own env.Provider usage in the deleted media-service koanf.go.
func envTransformFunc(key string) string {
	lower := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if strings.HasPrefix(lower, "provider_") {
		return "provider." + strings.TrimPrefix(lower, "provider_")
	}
	return lower
}
