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
	stderrors "errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schemavault/schemavault/internal/errors"
	"github.com/schemavault/schemavault/internal/types"
)

type DatabaseStorage struct {
	config DatabaseStorageConfig
	db     *gorm.DB
}

// NewDatabaseStorage creates a new database metadata store. If
// dbOverride is non-nil, it is used (for testing).
func NewDatabaseStorage(config DatabaseStorageConfig, dbOverride ...*gorm.DB) (*DatabaseStorage, error) {
	var db *gorm.DB
	var err error
	if len(dbOverride) > 0 && dbOverride[0] != nil {
		db = dbOverride[0]
	} else {
		db, err = gorm.Open(
			postgres.New(postgres.Config{
				DriverName: config.Driver,
				DSN:        config.ConnectionString,
			}),
			&gorm.Config{TranslateError: true},
		)
		if err != nil {
			return nil, err
		}

		// Set connection pool settings
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if config.MaxConnections > 0 {
			sqlDB.SetMaxOpenConns(config.MaxConnections)
		}
		if config.MaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(time.Duration(config.MaxIdleTime) * time.Second)
		}
	}
	return &DatabaseStorage{
		config: config,
		db:     db,
	}, nil
}

// Migrate creates or updates the metadata tables.
func (ds *DatabaseStorage) Migrate() error {
	return ds.db.AutoMigrate(&Application{}, &Service{}, &SchemaVersion{})
}

// GetOrCreateApplication looks up an application by name, creating it
// on first use. A uniqueness conflict during insert means another
// caller created the row first; it is re-read and returned.
func (ds *DatabaseStorage) GetOrCreateApplication(ctx context.Context, name string) (*types.Application, error) {
	var model Application
	err := ds.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err == nil {
		return toApplicationDomain(&model), nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NewStorageError("failed to look up application", err)
	}

	model = Application{Name: name, CreatedAt: time.Now().UTC()}
	err = ds.db.WithContext(ctx).Create(&model).Error
	if err == nil {
		return toApplicationDomain(&model), nil
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the creation race; the winner's row is authoritative.
		var existing Application
		if err := ds.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
			return nil, errors.NewStorageError("failed to re-read application after conflict", err)
		}
		return toApplicationDomain(&existing), nil
	}
	return nil, errors.NewStorageError("failed to create application", err)
}

// GetOrCreateService looks up a service by (name, application),
// creating it on first use with the same conflict semantics as
// GetOrCreateApplication.
func (ds *DatabaseStorage) GetOrCreateService(ctx context.Context, applicationID uint, name string) (*types.Service, error) {
	var model Service
	err := ds.db.WithContext(ctx).
		Where("name = ? AND application_id = ?", name, applicationID).
		First(&model).Error
	if err == nil {
		return toServiceDomain(&model), nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NewStorageError("failed to look up service", err)
	}

	model = Service{Name: name, ApplicationID: applicationID, CreatedAt: time.Now().UTC()}
	err = ds.db.WithContext(ctx).Create(&model).Error
	if err == nil {
		return toServiceDomain(&model), nil
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		var existing Service
		if err := ds.db.WithContext(ctx).
			Where("name = ? AND application_id = ?", name, applicationID).
			First(&existing).Error; err != nil {
			return nil, errors.NewStorageError("failed to re-read service after conflict", err)
		}
		return toServiceDomain(&existing), nil
	}
	return nil, errors.NewStorageError("failed to create service", err)
}

// FindApplication looks up an application by name without creating it.
func (ds *DatabaseStorage) FindApplication(ctx context.Context, name string) (*types.Application, error) {
	var model Application
	if err := ds.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrApplicationNotFound, "application not found: %s", name)
		}
		return nil, errors.NewStorageError("failed to look up application", err)
	}
	return toApplicationDomain(&model), nil
}

// FindService looks up a service under an application without creating it.
func (ds *DatabaseStorage) FindService(ctx context.Context, applicationID uint, name string) (*types.Service, error) {
	var model Service
	if err := ds.db.WithContext(ctx).
		Where("name = ? AND application_id = ?", name, applicationID).
		First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrServiceNotFound, "service not found: %s", name)
		}
		return nil, errors.NewStorageError("failed to look up service", err)
	}
	return toServiceDomain(&model), nil
}

// ListApplications returns all known application names, sorted.
func (ds *DatabaseStorage) ListApplications(ctx context.Context) ([]string, error) {
	var names []string
	if err := ds.db.WithContext(ctx).Model(&Application{}).
		Order("name").
		Pluck("name", &names).Error; err != nil {
		return nil, errors.NewStorageError("failed to list applications", err)
	}
	return names, nil
}

// ListServices returns all service names under an application, sorted.
func (ds *DatabaseStorage) ListServices(ctx context.Context, applicationID uint) ([]string, error) {
	var names []string
	if err := ds.db.WithContext(ctx).Model(&Service{}).
		Where("application_id = ?", applicationID).
		Order("name").
		Pluck("name", &names).Error; err != nil {
		return nil, errors.NewStorageError("failed to list services", err)
	}
	return names, nil
}

// MaxVersion returns the highest version stored for a target, 0 when
// the target has no versions.
func (ds *DatabaseStorage) MaxVersion(ctx context.Context, target types.Target) (int, error) {
	var max int
	if err := ds.db.WithContext(ctx).Model(&SchemaVersion{}).
		Where("application_id = ? AND service_id = ?", target.ApplicationID, target.ServiceID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error; err != nil {
		return 0, errors.NewStorageError("failed to query max version", err)
	}
	return max, nil
}

// CreateSchemaVersion inserts a version record. The composite unique
// index rejects a losing racer; that surfaces as VERSION_CONFLICT so
// the caller can retry with a freshly computed version.
func (ds *DatabaseStorage) CreateSchemaVersion(ctx context.Context, record *types.SchemaVersion) error {
	model := SchemaVersion{
		ApplicationID:    record.Target.ApplicationID,
		ServiceID:        record.Target.ServiceID,
		Version:          record.Version,
		Location:         record.Location,
		OriginalFilename: record.OriginalFilename,
		ContentType:      record.ContentType,
		CreatedAt:        record.CreatedAt,
	}
	if len(record.DocumentInfo) > 0 {
		model.DocumentInfo = datatypes.JSON(record.DocumentInfo)
	}

	if err := ds.db.WithContext(ctx).Create(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Newf(errors.ErrVersionConflict,
				"version %d already exists for target", record.Version)
		}
		return errors.NewStorageError("failed to create schema version", err)
	}

	record.ID = model.ID
	return nil
}

// GetSchemaVersion retrieves one version record for a target.
func (ds *DatabaseStorage) GetSchemaVersion(ctx context.Context, target types.Target, version int) (*types.SchemaVersion, error) {
	var model SchemaVersion
	if err := ds.db.WithContext(ctx).
		Where("application_id = ? AND service_id = ? AND version = ?",
			target.ApplicationID, target.ServiceID, version).
		First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrVersionNotFound, "schema version not found: %d", version)
		}
		return nil, errors.NewStorageError("failed to get schema version", err)
	}
	return toSchemaVersionDomain(&model), nil
}

// GetLatestSchemaVersion retrieves the highest version record for a
// target, failing with NO_VERSIONS when the target exists but has none.
func (ds *DatabaseStorage) GetLatestSchemaVersion(ctx context.Context, target types.Target) (*types.SchemaVersion, error) {
	var model SchemaVersion
	if err := ds.db.WithContext(ctx).
		Where("application_id = ? AND service_id = ?", target.ApplicationID, target.ServiceID).
		Order("version DESC").
		First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrNoVersions, "no schema versions found for target")
		}
		return nil, errors.NewStorageError("failed to get latest schema version", err)
	}
	return toSchemaVersionDomain(&model), nil
}

// ListVersions returns all version numbers for a target, ascending.
func (ds *DatabaseStorage) ListVersions(ctx context.Context, target types.Target) ([]int, error) {
	var versions []int
	if err := ds.db.WithContext(ctx).Model(&SchemaVersion{}).
		Where("application_id = ? AND service_id = ?", target.ApplicationID, target.ServiceID).
		Order("version ASC").
		Pluck("version", &versions).Error; err != nil {
		return nil, errors.NewStorageError("failed to list versions", err)
	}
	return versions, nil
}

// Close closes the database connection
func (ds *DatabaseStorage) Close() error {
	if ds.db == nil {
		return errors.New(errors.ErrInternalError, "database instance is nil")
	}
	db, err := ds.db.DB()
	if err != nil {
		return errors.NewStorageError("failed to get database instance", err)
	}
	return db.Close()
}

// HealthCheck performs a health check on the database connection
func (ds *DatabaseStorage) HealthCheck(ctx context.Context) error {
	if ds.db == nil {
		return errors.New(errors.ErrInternalError, "database instance is nil")
	}
	db, err := ds.db.DB()
	if err != nil {
		return errors.NewStorageError("failed to get database instance", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.NewStorageError("database health check failed", err)
	}

	return nil
}

// GetStats returns metadata store statistics
func (ds *DatabaseStorage) GetStats(ctx context.Context) (StoreStats, error) {
	stats := StoreStats{}

	if err := ds.db.WithContext(ctx).Model(&Application{}).Count(&stats.TotalApplications).Error; err != nil {
		return stats, errors.NewStorageError("failed to count applications", err)
	}
	if err := ds.db.WithContext(ctx).Model(&Service{}).Count(&stats.TotalServices).Error; err != nil {
		return stats, errors.NewStorageError("failed to count services", err)
	}
	if err := ds.db.WithContext(ctx).Model(&SchemaVersion{}).Count(&stats.TotalSchemaVersions).Error; err != nil {
		return stats, errors.NewStorageError("failed to count schema versions", err)
	}

	return stats, nil
}

// Helper functions for conversion between models and domain types

func toApplicationDomain(m *Application) *types.Application {
	return &types.Application{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

func toServiceDomain(m *Service) *types.Service {
	return &types.Service{
		ID:            m.ID,
		ApplicationID: m.ApplicationID,
		Name:          m.Name,
		CreatedAt:     m.CreatedAt,
	}
}

func toSchemaVersionDomain(m *SchemaVersion) *types.SchemaVersion {
	record := &types.SchemaVersion{
		ID: m.ID,
		Target: types.Target{
			ApplicationID: m.ApplicationID,
			ServiceID:     m.ServiceID,
		},
		Version:          m.Version,
		Location:         m.Location,
		OriginalFilename: m.OriginalFilename,
		ContentType:      m.ContentType,
		CreatedAt:        m.CreatedAt,
	}
	if len(m.DocumentInfo) > 0 {
		record.DocumentInfo = []byte(m.DocumentInfo)
	}
	return record
}
