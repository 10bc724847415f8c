// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"path/filepath"
	"testing"

	"github.com/tomtom215/strongroom/internal/backupinfo"
)

func TestStorageDefConfigDir_StoragePrefixResolvesUnderConfigRoot(t *testing.T) {
	configDir, name := storageDefConfigDir("storage:offsite")
	if name != "offsite" {
		t.Errorf("fallbackName = %q, want offsite", name)
	}
	want := filepath.Join(userConfigRoot(), "offsite")
	if configDir != want {
		t.Errorf("configDir = %q, want %q", configDir, want)
	}
}

func TestStorageDefConfigDir_LocalPathIsItsOwnConfigDir(t *testing.T) {
	configDir, name := storageDefConfigDir("/var/backups/media")
	if configDir != "/var/backups/media" {
		t.Errorf("configDir = %q, want /var/backups/media", configDir)
	}
	if name != "media" {
		t.Errorf("fallbackName = %q, want media", name)
	}
}

func TestParseSelector(t *testing.T) {
	cases := []struct {
		arg, prefix, want string
		wantOK            bool
	}{
		{"backup:nightly-*", "backup", "nightly-*", true},
		{"files:**/*.jpg", "files", "**/*.jpg", true},
		{"/out/dir", "backup", "", false},
		{"backup:", "backup", "", true},
	}
	for _, c := range cases {
		got, ok := parseSelector(c.arg, c.prefix)
		if got != c.want || ok != c.wantOK {
			t.Errorf("parseSelector(%q, %q) = (%q, %v), want (%q, %v)", c.arg, c.prefix, got, ok, c.want, c.wantOK)
		}
	}
}

func TestParseS3Secret(t *testing.T) {
	def := &backupinfo.StorageDefinition{Name: "offsite", Region: "us-east-1", Endpoint: "https://s3.example.com"}

	creds, err := parseS3Secret("key=AKIA,secret=shh,project=proj1", def)
	if err != nil {
		t.Fatalf("parseS3Secret() error = %v", err)
	}
	if creds.AccessKeyID != "AKIA" || creds.SecretAccessKey != "shh" {
		t.Errorf("creds = %+v, want key=AKIA secret=shh", creds)
	}
	if creds.Region != "us-east-1" || creds.Endpoint != "https://s3.example.com" {
		t.Errorf("creds region/endpoint = %q/%q, want from def", creds.Region, creds.Endpoint)
	}
}

func TestParseS3Secret_MissingFieldsIsError(t *testing.T) {
	def := &backupinfo.StorageDefinition{Name: "offsite"}
	if _, err := parseS3Secret("key=AKIA", def); err == nil {
		t.Error("parseS3Secret() expected error for missing secret field")
	}
}

func TestShapePrefix(t *testing.T) {
	cases := []struct {
		name      string
		args      []string
		wantShape string
		wantRest  []string
	}{
		{"per-file prefix", []string{"per-file:", "/a", "/b"}, "per-file", []string{"/a", "/b"}},
		{"pf shorthand", []string{"pf:", "/a"}, "per-file", []string{"/a"}},
		{"no prefix defaults to per-dir", []string{"/a", "/b"}, "per-dir", []string{"/a", "/b"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			shape, rest := shapePrefix(c.args)
			if shape != c.wantShape || len(rest) != len(c.wantRest) {
				t.Errorf("shapePrefix(%v) = (%q, %v), want (%q, %v)", c.args, shape, rest, c.wantShape, c.wantRest)
			}
		})
	}
}
