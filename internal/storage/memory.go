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

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/schemavault/schemavault/internal/errors"
	"github.com/schemavault/schemavault/internal/types"
)

// versionKey identifies one schema version record.
type versionKey struct {
	target  types.Target
	version int
}

// MemoryStorage implements MetadataStore backed by in-process maps.
// It enforces the same uniqueness constraints the database store gets
// from its indexes, so the versioning engine behaves identically on
// either backend.
type MemoryStorage struct {
	mu sync.RWMutex

	applications      map[string]*types.Application // name -> application
	applicationsByID  map[uint]*types.Application
	services          map[uint]map[string]*types.Service // application ID -> name -> service
	versions          map[versionKey]*types.SchemaVersion
	versionsByTarget  map[types.Target][]int // sorted ascending
	nextApplicationID uint
	nextServiceID     uint
	nextVersionRowID  uint
}

// NewMemoryStorage creates a new in-memory metadata store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		applications:      make(map[string]*types.Application),
		applicationsByID:  make(map[uint]*types.Application),
		services:          make(map[uint]map[string]*types.Service),
		versions:          make(map[versionKey]*types.SchemaVersion),
		versionsByTarget:  make(map[types.Target][]int),
		nextApplicationID: 1,
		nextServiceID:     1,
		nextVersionRowID:  1,
	}
}

func (ms *MemoryStorage) GetOrCreateApplication(ctx context.Context, name string) (*types.Application, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if app, exists := ms.applications[name]; exists {
		copied := *app
		return &copied, nil
	}

	app := &types.Application{
		ID:        ms.nextApplicationID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	ms.nextApplicationID++
	ms.applications[name] = app
	ms.applicationsByID[app.ID] = app

	copied := *app
	return &copied, nil
}

func (ms *MemoryStorage) GetOrCreateService(ctx context.Context, applicationID uint, name string) (*types.Service, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.applicationsByID[applicationID]; !exists {
		return nil, errors.Newf(errors.ErrApplicationNotFound, "application not found: %d", applicationID)
	}

	byName := ms.services[applicationID]
	if byName == nil {
		byName = make(map[string]*types.Service)
		ms.services[applicationID] = byName
	}
	if svc, exists := byName[name]; exists {
		copied := *svc
		return &copied, nil
	}

	svc := &types.Service{
		ID:            ms.nextServiceID,
		ApplicationID: applicationID,
		Name:          name,
		CreatedAt:     time.Now().UTC(),
	}
	ms.nextServiceID++
	byName[name] = svc

	copied := *svc
	return &copied, nil
}

func (ms *MemoryStorage) FindApplication(ctx context.Context, name string) (*types.Application, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	app, exists := ms.applications[name]
	if !exists {
		return nil, errors.Newf(errors.ErrApplicationNotFound, "application not found: %s", name)
	}
	copied := *app
	return &copied, nil
}

func (ms *MemoryStorage) FindService(ctx context.Context, applicationID uint, name string) (*types.Service, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	svc, exists := ms.services[applicationID][name]
	if !exists {
		return nil, errors.Newf(errors.ErrServiceNotFound, "service not found: %s", name)
	}
	copied := *svc
	return &copied, nil
}

func (ms *MemoryStorage) ListApplications(ctx context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	names := make([]string, 0, len(ms.applications))
	for name := range ms.applications {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (ms *MemoryStorage) ListServices(ctx context.Context, applicationID uint) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	byName := ms.services[applicationID]
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (ms *MemoryStorage) MaxVersion(ctx context.Context, target types.Target) (int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	versions := ms.versionsByTarget[target]
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[len(versions)-1], nil
}

func (ms *MemoryStorage) CreateSchemaVersion(ctx context.Context, record *types.SchemaVersion) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := versionKey{target: record.Target, version: record.Version}
	if _, exists := ms.versions[key]; exists {
		return errors.Newf(errors.ErrVersionConflict,
			"version %d already exists for target", record.Version)
	}

	record.ID = ms.nextVersionRowID
	ms.nextVersionRowID++

	stored := *record
	ms.versions[key] = &stored
	ms.versionsByTarget[record.Target] = insertSorted(ms.versionsByTarget[record.Target], record.Version)
	return nil
}

func (ms *MemoryStorage) GetSchemaVersion(ctx context.Context, target types.Target, version int) (*types.SchemaVersion, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	record, exists := ms.versions[versionKey{target: target, version: version}]
	if !exists {
		return nil, errors.Newf(errors.ErrVersionNotFound, "schema version not found: %d", version)
	}
	copied := *record
	return &copied, nil
}

func (ms *MemoryStorage) GetLatestSchemaVersion(ctx context.Context, target types.Target) (*types.SchemaVersion, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	versions := ms.versionsByTarget[target]
	if len(versions) == 0 {
		return nil, errors.New(errors.ErrNoVersions, "no schema versions found for target")
	}
	record := ms.versions[versionKey{target: target, version: versions[len(versions)-1]}]
	copied := *record
	return &copied, nil
}

func (ms *MemoryStorage) ListVersions(ctx context.Context, target types.Target) ([]int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	versions := ms.versionsByTarget[target]
	out := make([]int, len(versions))
	copy(out, versions)
	return out, nil
}

// Close is a no-op for memory storage
func (ms *MemoryStorage) Close() error {
	return nil
}

// HealthCheck always succeeds for memory storage
func (ms *MemoryStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (ms *MemoryStorage) GetStats(ctx context.Context) (StoreStats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stats := StoreStats{
		TotalApplications:   int64(len(ms.applications)),
		TotalSchemaVersions: int64(len(ms.versions)),
	}
	for _, byName := range ms.services {
		stats.TotalServices += int64(len(byName))
	}
	return stats, nil
}

// insertSorted keeps the per-target version slice ascending.
func insertSorted(versions []int, version int) []int {
	i := sort.SearchInts(versions, version)
	versions = append(versions, 0)
	copy(versions[i+1:], versions[i:])
	versions[i] = version
	return versions
}
