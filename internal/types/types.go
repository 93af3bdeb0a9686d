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

package types

import (
	"encoding/json"
	"time"
)

// Application is a named top-level grouping for uploaded schemas.
// Names are case-sensitive and globally unique.
type Application struct {
	ID        uint      `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Service is a named grouping nested under exactly one Application.
// The (name, application) pair is unique; the same service name may
// exist under different applications.
type Service struct {
	ID            uint      `json:"-"`
	ApplicationID uint      `json:"-"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Target identifies the scope version numbers are allocated within:
// either an application alone or an (application, service) pair.
// ServiceID == 0 discriminates the application-level scope; real
// services always have a non-zero ID.
type Target struct {
	ApplicationID uint
	ServiceID     uint
}

// ServiceScoped reports whether the target names a service under the
// application rather than the application itself.
func (t Target) ServiceScoped() bool {
	return t.ServiceID != 0
}

// SchemaVersion is an immutable record of one stored schema submission.
// (Target, Version) is unique; versions for a target are contiguous
// starting at 1. Records and their bytes are never mutated.
type SchemaVersion struct {
	ID               uint            `json:"-"`
	Target           Target          `json:"-"`
	Version          int             `json:"version"`
	Location         string          `json:"location"`
	OriginalFilename string          `json:"original_filename,omitempty"`
	ContentType      string          `json:"content_type,omitempty"`
	DocumentInfo     json.RawMessage `json:"document_info,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	Application string    `json:"application"`
	Service     string    `json:"service,omitempty"`
	Version     int       `json:"version"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// SchemaInfo describes a stored schema version without its bytes.
type SchemaInfo struct {
	Application  string          `json:"application"`
	Service      string          `json:"service,omitempty"`
	Version      int             `json:"version"`
	Location     string          `json:"location"`
	DocumentInfo json.RawMessage `json:"document_info,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// VersionsList lists all version numbers stored for a target, ascending.
type VersionsList struct {
	Application string `json:"application"`
	Service     string `json:"service,omitempty"`
	Versions    []int  `json:"versions"`
}

// ApplicationsList lists all known application names.
type ApplicationsList struct {
	Applications []string `json:"applications"`
}

// ServicesList lists all service names under one application.
type ServicesList struct {
	Application string   `json:"application"`
	Services    []string `json:"services"`
}

// ErrorDetail carries structured error information in responses.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorResponse is the envelope for all error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
