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
	"fmt"
)

// StoreConfig configures blob store creation.
type StoreConfig struct {
	Type     string `yaml:"type"` // "filesystem" or "memory"
	BasePath string `yaml:"base_path"`
}

// NewStore creates a blob store based on the provided configuration
func NewStore(config StoreConfig) (Store, error) {
	switch config.Type {
	case "memory":
		return NewMemoryStore(), nil

	case "filesystem", "":
		store, err := NewFileStore(config.BasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem blob store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported blob storage type: %s", config.Type)
	}
}
