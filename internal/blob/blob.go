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

// Package blob stores canonical schema bytes write-once, keyed by
// (application, service, version). Keys are deterministic: the same
// target and version always map to the same location, and a location
// is never written twice.
package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// applicationPlaceholder stands in for the service segment of
// application-scoped schemas, keeping the key shape uniform across
// both scopes.
const applicationPlaceholder = "_app"

// Store persists schema bytes durably. Put is write-once: a second Put
// for the same location fails with BLOB_CONFLICT instead of
// overwriting. Get for an unknown location fails with BLOB_MISSING.
type Store interface {
	Put(ctx context.Context, location string, data []byte) error
	Get(ctx context.Context, location string) ([]byte, error)
	Exists(ctx context.Context, location string) (bool, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// Location derives the storage key for a schema version. Application
// and service names pass through path escaping so user-supplied names
// cannot break out of their key segment. An empty service means the
// schema is application-scoped. A leading underscore in a real service
// name is percent-encoded so no service segment can equal the
// placeholder.
func Location(application, service string, version int) string {
	serviceSegment := applicationPlaceholder
	if service != "" {
		serviceSegment = url.PathEscape(service)
		if strings.HasPrefix(serviceSegment, "_") {
			serviceSegment = "%5F" + serviceSegment[1:]
		}
	}
	return fmt.Sprintf("%s/%s/%d.json", url.PathEscape(application), serviceSegment, version)
}
