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
	"time"

	"gorm.io/datatypes"
)

// Application model
type Application struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
}

// Service model. (name, application_id) is unique; the same service
// name may exist under different applications.
type Service struct {
	ID            uint      `gorm:"primarykey" json:"-"`
	Name          string    `gorm:"size:255;not null;uniqueIndex:uq_service_per_app" json:"name"`
	ApplicationID uint      `gorm:"not null;uniqueIndex:uq_service_per_app;index" json:"-"`
	CreatedAt     time.Time `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
}

// SchemaVersion model. service_id is NOT NULL with 0 marking the
// application-level scope, so the composite unique index carries the
// per-target version invariant without NULL-collision semantics.
type SchemaVersion struct {
	ID               uint           `gorm:"primarykey" json:"-"`
	ApplicationID    uint           `gorm:"not null;uniqueIndex:uq_version_per_target" json:"-"`
	ServiceID        uint           `gorm:"not null;default:0;uniqueIndex:uq_version_per_target" json:"-"`
	Version          int            `gorm:"not null;uniqueIndex:uq_version_per_target" json:"version"`
	Location         string         `gorm:"type:text;not null" json:"location"`
	OriginalFilename string         `gorm:"size:255" json:"original_filename,omitempty"`
	ContentType      string         `gorm:"size:100" json:"content_type,omitempty"`
	DocumentInfo     datatypes.JSON `gorm:"type:jsonb" json:"document_info,omitempty"`
	CreatedAt        time.Time      `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
}

// TableName specify table name
func (Application) TableName() string {
	return "applications"
}

func (Service) TableName() string {
	return "services"
}

func (SchemaVersion) TableName() string {
	return "schema_versions"
}
