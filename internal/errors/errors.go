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

package errors

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/schemavault/schemavault/internal/types"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Input faults: the caller's data is invalid
	ErrInvalidRequestFormat ErrorCode = "INVALID_REQUEST_FORMAT"
	ErrNotUTF8              ErrorCode = "SCHEMA_NOT_UTF8"
	ErrNotJSONOrYAML        ErrorCode = "SCHEMA_NOT_JSON_OR_YAML"
	ErrValidationFailed     ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrPayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"

	// Not-found faults, reported distinctly per case
	ErrApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrServiceNotFound     ErrorCode = "SERVICE_NOT_FOUND"
	ErrVersionNotFound     ErrorCode = "VERSION_NOT_FOUND"
	ErrNoVersions          ErrorCode = "NO_VERSIONS"

	// Consistency faults: metadata and blob storage disagree
	ErrBlobMissing ErrorCode = "BLOB_MISSING"

	// Storage and transient faults
	ErrVersionConflict ErrorCode = "VERSION_CONFLICT"
	ErrBlobConflict    ErrorCode = "BLOB_CONFLICT"
	ErrStorageFailure  ErrorCode = "STORAGE_FAILURE"

	// System errors
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// VaultError represents a structured registry error
type VaultError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"` // Internal cause, not exposed in JSON
}

// Error implements the error interface
func (e *VaultError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// ToErrorResponse converts VaultError to types.ErrorResponse
func (e *VaultError) ToErrorResponse() types.ErrorResponse {
	return types.ErrorResponse{
		Error: types.ErrorDetail{
			Code:      string(e.Code),
			Message:   e.Message,
			Details:   e.Details,
			Timestamp: e.Timestamp,
			RequestID: e.RequestID,
		},
	}
}

// New creates a new VaultError
func New(code ErrorCode, message string) *VaultError {
	return &VaultError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Newf creates a new VaultError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *VaultError {
	return &VaultError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates a new VaultError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *VaultError {
	return &VaultError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now().UTC(),
	}
}

// Wrapf creates a new VaultError wrapping an existing error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *VaultError {
	return &VaultError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Cause:     cause,
		Timestamp: time.Now().UTC(),
	}
}

// WithDetails adds details to a VaultError
func (e *VaultError) WithDetails(details map[string]interface{}) *VaultError {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to a VaultError
func (e *VaultError) WithRequestID(requestID string) *VaultError {
	e.RequestID = requestID
	return e
}

// IsInputFault reports whether the error was caused by invalid caller
// input. Input faults are reported to the caller with the specific
// failing condition and produce no partial state.
func (e *VaultError) IsInputFault() bool {
	switch e.Code {
	case ErrInvalidRequestFormat, ErrNotUTF8, ErrNotJSONOrYAML,
		ErrValidationFailed, ErrPayloadTooLarge:
		return true
	default:
		return false
	}
}

// GetHTTPStatus returns the appropriate HTTP status code for the error
func (e *VaultError) GetHTTPStatus() int {
	switch e.Code {
	case ErrInvalidRequestFormat, ErrNotUTF8, ErrNotJSONOrYAML, ErrValidationFailed:
		return 400 // Bad Request

	case ErrApplicationNotFound, ErrServiceNotFound, ErrVersionNotFound, ErrNoVersions:
		return 404 // Not Found

	case ErrPayloadTooLarge:
		return 413 // Payload Too Large

	// Blob-missing is a consistency fault between metadata and blob
	// storage, surfaced as an internal failure rather than not-found.
	case ErrBlobMissing, ErrStorageFailure, ErrVersionConflict, ErrBlobConflict, ErrInternalError:
		return 500 // Internal Server Error

	case ErrServiceUnavailable:
		return 503 // Service Unavailable

	default:
		return 500 // Default to Internal Server Error
	}
}

// Common error constructors for convenience

// NewValidationError creates a structural validation error
func NewValidationError(message string, details map[string]interface{}) *VaultError {
	return New(ErrValidationFailed, message).WithDetails(details)
}

// NewStorageError creates a storage error
func NewStorageError(message string, cause error) *VaultError {
	return Wrap(ErrStorageFailure, message, cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *VaultError {
	return Wrap(ErrInternalError, message, cause)
}

// IsVaultError checks if an error is a VaultError
func IsVaultError(err error) bool {
	var ve *VaultError
	return stderrors.As(err, &ve)
}

// AsVaultError converts an error to VaultError if possible
func AsVaultError(err error) (*VaultError, bool) {
	var ve *VaultError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// HasCode reports whether err is a VaultError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	if ve, ok := AsVaultError(err); ok {
		return ve.Code == code
	}
	return false
}
