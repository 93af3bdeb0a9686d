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
	"fmt"
)

// NewMetadataStore creates a metadata store based on the provided configuration
func NewMetadataStore(config StorageConfig) (MetadataStore, error) {
	switch config.Type {
	case "memory", "":
		return NewMemoryStorage(), nil

	case "database":
		if config.Database == nil {
			return nil, fmt.Errorf("database storage requires database configuration")
		}
		store, err := NewDatabaseStorage(*config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database storage: %w", err)
		}
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate database schema: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
