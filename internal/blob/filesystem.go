/*
 * Copyright 2025 SchemaVault Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schemavault/schemavault/internal/errors"
)

// FileStore implements Store on the local filesystem under a base
// directory. Files are created with O_EXCL and fsynced before Put
// returns, so a successful Put means the bytes are durable and the
// location is permanently claimed. The exclusive create doubles as a
// cross-process guard: two writers racing for one location cannot both
// succeed.
type FileStore struct {
	basePath string
}

// NewFileStore creates a filesystem blob store rooted at basePath,
// creating the directory if needed.
func NewFileStore(basePath string) (*FileStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("blob base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob base directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (fs *FileStore) path(location string) string {
	return filepath.Join(fs.basePath, filepath.FromSlash(location))
}

// Put writes data to location exactly once.
func (fs *FileStore) Put(ctx context.Context, location string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrStorageFailure, "blob write canceled", err)
	}

	path := fs.path(location)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorageError("failed to create blob directory", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Newf(errors.ErrBlobConflict, "blob already exists: %s", location)
		}
		return errors.NewStorageError("failed to create blob file", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return errors.NewStorageError("failed to write blob", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return errors.NewStorageError("failed to sync blob", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.NewStorageError("failed to close blob file", err)
	}
	return nil
}

// Get returns the bytes stored at location.
func (fs *FileStore) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStorageFailure, "blob read canceled", err)
	}

	data, err := os.ReadFile(fs.path(location))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrBlobMissing, "blob missing: %s", location)
		}
		return nil, errors.NewStorageError("failed to read blob", err)
	}
	return data, nil
}

// Exists reports whether a blob is stored at location.
func (fs *FileStore) Exists(ctx context.Context, location string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(errors.ErrStorageFailure, "blob stat canceled", err)
	}

	_, err := os.Stat(fs.path(location))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewStorageError("failed to stat blob", err)
}

// HealthCheck verifies the base directory is a writable directory.
func (fs *FileStore) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(fs.basePath)
	if err != nil {
		return errors.NewStorageError("blob base directory unavailable", err)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrStorageFailure, "blob base path is not a directory: %s", fs.basePath)
	}
	return nil
}

// Close is a no-op for filesystem storage
func (fs *FileStore) Close() error {
	return nil
}
