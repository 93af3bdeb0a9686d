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

// Package engine implements schema versioning on top of the metadata
// and blob stores: uploads validate, canonicalize, and store schema
// documents under per-target version numbers that are contiguous from
// 1, with no gaps or duplicates under concurrent uploads.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/schemavault/schemavault/internal/blob"
	"github.com/schemavault/schemavault/internal/errors"
	"github.com/schemavault/schemavault/internal/logging"
	"github.com/schemavault/schemavault/internal/spec"
	"github.com/schemavault/schemavault/internal/storage"
	"github.com/schemavault/schemavault/internal/types"
)

// maxAllocationRetries bounds how often an upload recomputes its
// version after losing an allocation race before giving up.
const maxAllocationRetries = 5

// Engine coordinates schema uploads and retrieval.
type Engine struct {
	metadata storage.MetadataStore
	blobs    blob.Store
	logger   *logging.Logger

	// Per-target serialization of version allocation. Uploads for
	// different targets never contend with each other.
	locksMu sync.Mutex
	locks   map[types.Target]*sync.Mutex
}

// New creates a versioning engine over the given stores.
func New(metadata storage.MetadataStore, blobs blob.Store, logger *logging.Logger) *Engine {
	return &Engine{
		metadata: metadata,
		blobs:    blobs,
		logger:   logger.WithComponent("engine"),
		locks:    make(map[types.Target]*sync.Mutex),
	}
}

// Upload describes one schema submission.
type Upload struct {
	Application      string
	Service          string // empty for application-scoped schemas
	Raw              []byte
	OriginalFilename string
	ContentType      string
}

// StoredSchema pairs a version record with the names that identify it.
type StoredSchema struct {
	Record      *types.SchemaVersion
	Application string
	Service     string
}

// Upload validates, canonicalizes, and stores a schema, returning the
// allocated version. Validation happens before any storage side
// effects: a rejected upload creates no target, no version, and no
// blob.
func (e *Engine) Upload(ctx context.Context, up Upload) (*types.UploadResponse, error) {
	start := time.Now()

	resp, err := e.upload(ctx, up)

	duration := time.Since(start)
	version := 0
	if resp != nil {
		version = resp.Version
	}
	e.logger.WithContext(ctx).LogSchemaOperation("upload", up.Application, up.Service, version, &duration, err)
	return resp, err
}

func (e *Engine) upload(ctx context.Context, up Upload) (*types.UploadResponse, error) {
	if up.Application == "" {
		return nil, errors.New(errors.ErrInvalidRequestFormat, "application name is required")
	}
	if len(up.Raw) == 0 {
		return nil, errors.New(errors.ErrInvalidRequestFormat, "uploaded file is empty")
	}

	doc, err := spec.Parse(up.Raw)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(doc); err != nil {
		return nil, err
	}
	canonical, err := spec.Canonicalize(doc)
	if err != nil {
		return nil, err
	}
	documentInfo := spec.Summarize(doc)

	target, err := e.resolveTarget(ctx, up.Application, up.Service, true)
	if err != nil {
		return nil, err
	}

	lock := e.targetLock(target)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxAllocationRetries; attempt++ {
		max, err := e.metadata.MaxVersion(ctx, target)
		if err != nil {
			return nil, err
		}
		version := max + 1
		location := blob.Location(up.Application, up.Service, version)

		// The write-once blob claims the version across processes;
		// losing the claim means another writer allocated it first.
		if err := e.blobs.Put(ctx, location, canonical); err != nil {
			if errors.HasCode(err, errors.ErrBlobConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		record := &types.SchemaVersion{
			Target:           target,
			Version:          version,
			Location:         location,
			OriginalFilename: up.OriginalFilename,
			ContentType:      up.ContentType,
			DocumentInfo:     documentInfo,
			CreatedAt:        time.Now().UTC(),
		}
		if err := e.metadata.CreateSchemaVersion(ctx, record); err != nil {
			if errors.HasCode(err, errors.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		return &types.UploadResponse{
			Application: up.Application,
			Service:     up.Service,
			Version:     version,
			Location:    location,
			CreatedAt:   record.CreatedAt,
		}, nil
	}

	return nil, errors.Wrap(errors.ErrStorageFailure,
		"failed to allocate schema version after repeated conflicts", lastErr)
}

// GetLatest returns the metadata of the latest stored version for a
// target. It reads metadata only: blob bytes are fetched by GetVersion,
// so a latest lookup never depends on blob storage.
func (e *Engine) GetLatest(ctx context.Context, application, service string) (*StoredSchema, error) {
	target, err := e.resolveTarget(ctx, application, service, false)
	if err != nil {
		return nil, err
	}

	record, err := e.metadata.GetLatestSchemaVersion(ctx, target)
	if err != nil {
		return nil, err
	}
	return &StoredSchema{
		Record:      record,
		Application: application,
		Service:     service,
	}, nil
}

// GetVersion returns one stored version for a target together with its
// canonical bytes.
func (e *Engine) GetVersion(ctx context.Context, application, service string, version int) (*StoredSchema, []byte, error) {
	if version < 1 {
		return nil, nil, errors.Newf(errors.ErrInvalidRequestFormat,
			"version must be a positive integer, got %d", version)
	}

	target, err := e.resolveTarget(ctx, application, service, false)
	if err != nil {
		return nil, nil, err
	}

	record, err := e.metadata.GetSchemaVersion(ctx, target, version)
	if err != nil {
		return nil, nil, err
	}
	return e.withBytes(ctx, record, application, service)
}

// ListVersions returns all version numbers stored for a target,
// ascending.
func (e *Engine) ListVersions(ctx context.Context, application, service string) (*types.VersionsList, error) {
	target, err := e.resolveTarget(ctx, application, service, false)
	if err != nil {
		return nil, err
	}

	versions, err := e.metadata.ListVersions(ctx, target)
	if err != nil {
		return nil, err
	}
	return &types.VersionsList{
		Application: application,
		Service:     service,
		Versions:    versions,
	}, nil
}

// ListApplications returns all known application names.
func (e *Engine) ListApplications(ctx context.Context) (*types.ApplicationsList, error) {
	names, err := e.metadata.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	return &types.ApplicationsList{Applications: names}, nil
}

// ListServices returns all service names under an application.
func (e *Engine) ListServices(ctx context.Context, application string) (*types.ServicesList, error) {
	app, err := e.metadata.FindApplication(ctx, application)
	if err != nil {
		return nil, err
	}
	names, err := e.metadata.ListServices(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	return &types.ServicesList{Application: application, Services: names}, nil
}

// resolveTarget maps (application, service) names onto a Target. When
// create is set the groupings are created on first use; otherwise
// unknown names fail with their respective not-found code.
func (e *Engine) resolveTarget(ctx context.Context, application, service string, create bool) (types.Target, error) {
	if application == "" {
		return types.Target{}, errors.New(errors.ErrInvalidRequestFormat, "application name is required")
	}

	var app *types.Application
	var err error
	if create {
		app, err = e.metadata.GetOrCreateApplication(ctx, application)
	} else {
		app, err = e.metadata.FindApplication(ctx, application)
	}
	if err != nil {
		return types.Target{}, err
	}

	target := types.Target{ApplicationID: app.ID}
	if service == "" {
		return target, nil
	}

	var svc *types.Service
	if create {
		svc, err = e.metadata.GetOrCreateService(ctx, app.ID, service)
	} else {
		svc, err = e.metadata.FindService(ctx, app.ID, service)
	}
	if err != nil {
		return types.Target{}, err
	}
	target.ServiceID = svc.ID
	return target, nil
}

// withBytes fetches the blob named by a version record. A record whose
// blob is gone is a consistency fault, not a not-found.
func (e *Engine) withBytes(ctx context.Context, record *types.SchemaVersion, application, service string) (*StoredSchema, []byte, error) {
	data, err := e.blobs.Get(ctx, record.Location)
	if err != nil {
		if errors.HasCode(err, errors.ErrBlobMissing) {
			e.logger.WithContext(ctx).Errorf(err,
				"metadata references missing blob %s (application=%s service=%s version=%d)",
				record.Location, application, service, record.Version)
		}
		return nil, nil, err
	}
	return &StoredSchema{
		Record:      record,
		Application: application,
		Service:     service,
	}, data, nil
}

// targetLock returns the allocation mutex for a target, creating it on
// first use.
func (e *Engine) targetLock(target types.Target) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, exists := e.locks[target]
	if !exists {
		lock = &sync.Mutex{}
		e.locks[target] = lock
	}
	return lock
}

// HealthCheck verifies both backing stores are reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if err := e.metadata.HealthCheck(ctx); err != nil {
		return err
	}
	return e.blobs.HealthCheck(ctx)
}

// Stats returns metadata store statistics.
func (e *Engine) Stats(ctx context.Context) (storage.StoreStats, error) {
	return e.metadata.GetStats(ctx)
}

// Close releases both backing stores.
func (e *Engine) Close() error {
	if err := e.metadata.Close(); err != nil {
		return err
	}
	return e.blobs.Close()
}
