// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package restore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/strongroom/internal/errs"
)

// validateAndBuildDestPath validates and builds the destination path for a
// restored file, rejecting any SourcePath that would escape destDir via a
// ".." segment; an absolute SourcePath is re-rooted under destDir.
// Generalized from
// internal/backup/restore.go's tar-extraction guard of the same name.
func validateAndBuildDestPath(destDir, sourcePath string) (string, error) {
	rel := sourcePath
	if filepath.IsAbs(rel) {
		rel = strings.TrimPrefix(rel, filepath.VolumeName(rel))
		rel = strings.TrimLeft(rel, `/\`)
	}

	destPath := filepath.Join(destDir, rel)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", errs.New(errs.KindValidation, "restore.validateAndBuildDestPath", errs.ErrUnexpectedState).WithPath(sourcePath)
	}
	return destPath, nil
}
