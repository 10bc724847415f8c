// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// FilesystemProvider implements Provider over a local directory tree.
// PutObject writes to `<container>/<prefix>/<id>.tmp` and renames on
// close, generalized from internal/backup/manager.go's
// saveMetadataLocked (write-then-persist) and restore.go's
// copyAndCloseDestFile (fsync-before-close) into a temp-file + fsync +
// rename sequence so a reader never observes a partial object.
type FilesystemProvider struct {
	root string
}

// NewFilesystemProvider returns a provider rooted at root, creating it if
// absent.
func NewFilesystemProvider(root string) (*FilesystemProvider, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errs.New(errs.KindIO, "storage.NewFilesystemProvider", err)
	}
	return &FilesystemProvider{root: root}, nil
}

func (p *FilesystemProvider) Kind() string { return "filesystem" }

func (p *FilesystemProvider) containerPath(container Container) string {
	return filepath.Join(p.root, string(container))
}

// objectPath builds and validates the on-disk path for id, rejecting any
// id that would escape the container directory via path traversal.
func (p *FilesystemProvider) objectPath(container Container, id ObjectID) (string, error) {
	base := p.containerPath(container)
	full := filepath.Join(base, string(id))
	if !strings.HasPrefix(full, filepath.Clean(base)+string(os.PathSeparator)) {
		return "", errs.New(errs.KindValidation, "storage.objectPath", errs.ErrNotFound).WithPath(string(id))
	}
	return full, nil
}

func (p *FilesystemProvider) PutObject(ctx context.Context, container Container, id ObjectID, stream io.Reader, expectedSize int64) error {
	log := logging.WithComponent("storage.filesystem")

	dest, err := p.objectPath(container, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return errs.New(errs.KindIO, "storage.PutObject", err).WithPath(string(id))
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path validated by objectPath
	if err != nil {
		return errs.New(errs.KindIO, "storage.PutObject", err).WithPath(string(id))
	}

	written, copyErr := io.Copy(f, stream)
	if copyErr != nil {
		f.Close() //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "storage.PutObject", copyErr).WithPath(string(id))
	}
	if expectedSize >= 0 && written != expectedSize {
		f.Close() //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindValidation, "storage.PutObject", errs.ErrChecksumMismatch).WithPath(string(id))
	}

	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "storage.PutObject", err).WithPath(string(id))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return errs.New(errs.KindIO, "storage.PutObject", err).WithPath(string(id))
	}

	if err := os.Rename(tmp, dest); err != nil {
		return errs.New(errs.KindIO, "storage.PutObject", err).WithPath(string(id))
	}

	log.Debug().Str("id", string(id)).Int64("size", written).Msg("object committed")
	return nil
}

func (p *FilesystemProvider) GetObject(ctx context.Context, container Container, id ObjectID) (io.ReadCloser, error) {
	path, err := p.objectPath(container, id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path validated by objectPath
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.KindProvider, "storage.GetObject", errs.ErrNotFound).WithPath(string(id))
		}
		return nil, errs.New(errs.KindIO, "storage.GetObject", err).WithPath(string(id))
	}
	return f, nil
}

func (p *FilesystemProvider) ListObjects(ctx context.Context, container Container, prefix string, yield func(ListEntry) bool) error {
	base := p.containerPath(container)
	walkRoot := filepath.Join(base, prefix)

	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return relErr
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if !yield(ListEntry{ID: ObjectID(filepath.ToSlash(rel)), Size: info.Size()}) {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return errs.New(errs.KindIO, "storage.ListObjects", err)
	}
	return nil
}

func (p *FilesystemProvider) DeleteObject(ctx context.Context, container Container, id ObjectID) error {
	path, err := p.objectPath(container, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errs.New(errs.KindProvider, "storage.DeleteObject", errs.ErrNotFound).WithPath(string(id))
		}
		return errs.New(errs.KindIO, "storage.DeleteObject", err).WithPath(string(id))
	}
	return nil
}

func (p *FilesystemProvider) CreateContainer(ctx context.Context, baseName string, autoFindSuffix bool) (Container, error) {
	name := baseName
	for i := 0; ; i++ {
		if i > 0 {
			if !autoFindSuffix {
				return "", errs.New(errs.KindProvider, "storage.CreateContainer", errs.ErrAlreadyExists)
			}
			name = baseName + "-" + strconv.Itoa(i)
		}
		path := p.containerPath(Container(name))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if mkErr := os.MkdirAll(path, 0o750); mkErr != nil {
				return "", errs.New(errs.KindIO, "storage.CreateContainer", mkErr)
			}
			return Container(name), nil
		}
		if !autoFindSuffix {
			return Container(name), nil
		}
	}
}
