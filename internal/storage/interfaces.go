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

	"github.com/schemavault/schemavault/internal/types"
)

// MetadataStore is the persistence contract the versioning engine
// requires from its metadata collaborator. Implementations must enforce
// two uniqueness constraints: Application.name, and
// (application_id, service_id, version) on schema versions.
type MetadataStore interface {
	// Target resolution. GetOrCreate operations are idempotent under
	// concurrency: on a uniqueness conflict the existing row is
	// re-read and returned. Find operations never create and fail with
	// APPLICATION_NOT_FOUND / SERVICE_NOT_FOUND.
	GetOrCreateApplication(ctx context.Context, name string) (*types.Application, error)
	GetOrCreateService(ctx context.Context, applicationID uint, name string) (*types.Service, error)
	FindApplication(ctx context.Context, name string) (*types.Application, error)
	FindService(ctx context.Context, applicationID uint, name string) (*types.Service, error)
	ListApplications(ctx context.Context) ([]string, error)
	ListServices(ctx context.Context, applicationID uint) ([]string, error)

	// Version records. CreateSchemaVersion fails with VERSION_CONFLICT
	// when (target, version) already exists; MaxVersion returns 0 when
	// the target has no versions.
	MaxVersion(ctx context.Context, target types.Target) (int, error)
	CreateSchemaVersion(ctx context.Context, record *types.SchemaVersion) error
	GetSchemaVersion(ctx context.Context, target types.Target, version int) (*types.SchemaVersion, error)
	GetLatestSchemaVersion(ctx context.Context, target types.Target) (*types.SchemaVersion, error)
	ListVersions(ctx context.Context, target types.Target) ([]int, error)

	// Maintenance operations
	Close() error
	HealthCheck(ctx context.Context) error
	GetStats(ctx context.Context) (StoreStats, error)
}

// StoreStats provides metadata store statistics
type StoreStats struct {
	TotalApplications   int64 `json:"total_applications"`
	TotalServices       int64 `json:"total_services"`
	TotalSchemaVersions int64 `json:"total_schema_versions"`
}

// StorageConfig defines configuration for metadata store implementations
type StorageConfig struct {
	Type string `yaml:"type" json:"type"` // "memory" or "database"

	Database *DatabaseStorageConfig `yaml:"database,omitempty" json:"database,omitempty"`
}

// DatabaseStorageConfig configures the relational metadata store
type DatabaseStorageConfig struct {
	Driver           string `yaml:"driver" json:"driver"`
	ConnectionString string `yaml:"connection_string" json:"connection_string"`
	MaxConnections   int    `yaml:"max_connections" json:"max_connections"`
	MaxIdleTime      int    `yaml:"max_idle_time" json:"max_idle_time"`
}
