// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pfi

import (
	"os"

	"github.com/tomtom215/strongroom/internal/errs"
)

// atomicWrite implements the temp-file + fsync + rename sequence required
// by §4.5 for every on-disk document pfi produces, matching
// backupinfo.atomicWrite's protocol so a reader never observes a partial
// database or sidecar file.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errs.New(errs.KindIO, "pfi.atomicWrite", err).WithPath(path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "pfi.atomicWrite", err).WithPath(path)
	}
	if err := f.Sync(); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "pfi.atomicWrite", err).WithPath(path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "pfi.atomicWrite", err).WithPath(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.New(errs.KindIO, "pfi.atomicWrite", err).WithPath(path)
	}
	return nil
}
