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
	"sync"

	"github.com/schemavault/schemavault/internal/errors"
)

// MemoryStore implements Store backed by an in-process map, with the
// same write-once semantics as the filesystem store.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

func (ms *MemoryStore) Put(ctx context.Context, location string, data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.blobs[location]; exists {
		return errors.Newf(errors.ErrBlobConflict, "blob already exists: %s", location)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	ms.blobs[location] = stored
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, location string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	data, exists := ms.blobs[location]
	if !exists {
		return nil, errors.Newf(errors.ErrBlobMissing, "blob missing: %s", location)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (ms *MemoryStore) Exists(ctx context.Context, location string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	_, exists := ms.blobs[location]
	return exists, nil
}

// HealthCheck always succeeds for memory storage
func (ms *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (ms *MemoryStore) Close() error {
	return nil
}
