// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package backupengine

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/errs"
)

// discover walks every source root and yields one discovered entry per
// regular file not matched by excludeGlobs. Symlinks are not followed
// (fs.WalkDir's default), matching the teacher's filesystem provider walk
// in internal/storage/filesystem.go.
func discover(roots []string, excludeGlobs []string) ([]discovered, error) {
	var out []discovered

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if excluded(rel, excludeGlobs) {
				return nil
			}

			info, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}

			out = append(out, discovered{
				sourcePath:     path,
				normalizedPath: backupinfo.NormalizePath(path),
				size:           info.Size(),
				modTime:        info.ModTime().UTC(),
			})
			return nil
		})
		if err != nil {
			return nil, errs.New(errs.KindIO, "backupengine.discover", err).WithPath(root)
		}
	}

	return out, nil
}

func excluded(relPath string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, filepath.ToSlash(relPath)); ok {
			return true
		}
	}
	return false
}
