package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrValidationFailed, "schema missing 'paths' object")
	if err.Code != ErrValidationFailed {
		t.Errorf("unexpected code: %s", err.Code)
	}
	if err.Timestamp.IsZero() {
		t.Errorf("expected timestamp to be set")
	}
	if err.Error() != "SCHEMA_VALIDATION_FAILED: schema missing 'paths' object" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrStorageFailure, "failed to query versions", cause)

	if !stderrors.Is(err, cause) {
		t.Errorf("expected wrapped error to match cause")
	}
	if err.Error() != "STORAGE_FAILURE: failed to query versions (caused by: connection refused)" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code   ErrorCode
		status int
	}{
		{ErrInvalidRequestFormat, 400},
		{ErrNotUTF8, 400},
		{ErrNotJSONOrYAML, 400},
		{ErrValidationFailed, 400},
		{ErrApplicationNotFound, 404},
		{ErrServiceNotFound, 404},
		{ErrVersionNotFound, 404},
		{ErrNoVersions, 404},
		{ErrPayloadTooLarge, 413},
		{ErrBlobMissing, 500},
		{ErrStorageFailure, 500},
		{ErrVersionConflict, 500},
		{ErrInternalError, 500},
		{ErrServiceUnavailable, 503},
	}
	for _, tc := range cases {
		if got := New(tc.code, "x").GetHTTPStatus(); got != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestIsInputFault(t *testing.T) {
	if !New(ErrNotUTF8, "x").IsInputFault() {
		t.Errorf("SCHEMA_NOT_UTF8 is an input fault")
	}
	if New(ErrBlobMissing, "x").IsInputFault() {
		t.Errorf("BLOB_MISSING is not an input fault")
	}
}

func TestHasCode(t *testing.T) {
	err := Newf(ErrVersionNotFound, "schema version not found: %d", 3)
	if !HasCode(err, ErrVersionNotFound) {
		t.Errorf("expected HasCode to match")
	}
	if HasCode(err, ErrNoVersions) {
		t.Errorf("expected HasCode to reject other codes")
	}
	if HasCode(fmt.Errorf("plain"), ErrVersionNotFound) {
		t.Errorf("expected HasCode to reject plain errors")
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	inner := New(ErrBlobConflict, "blob already exists")
	outer := fmt.Errorf("put failed: %w", inner)
	if !HasCode(outer, ErrBlobConflict) {
		t.Errorf("expected HasCode to unwrap")
	}
}

func TestAsVaultError(t *testing.T) {
	ve, ok := AsVaultError(New(ErrNoVersions, "no versions"))
	if !ok || ve.Code != ErrNoVersions {
		t.Errorf("expected VaultError extraction")
	}
	if _, ok := AsVaultError(fmt.Errorf("plain")); ok {
		t.Errorf("expected plain errors to not convert")
	}
}

func TestToErrorResponse(t *testing.T) {
	err := New(ErrValidationFailed, "bad schema").
		WithDetails(map[string]interface{}{"field": "paths"}).
		WithRequestID("req-1")

	resp := err.ToErrorResponse()
	if resp.Error.Code != "SCHEMA_VALIDATION_FAILED" {
		t.Errorf("unexpected code: %s", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected request ID: %s", resp.Error.RequestID)
	}
	if resp.Error.Details["field"] != "paths" {
		t.Errorf("unexpected details: %v", resp.Error.Details)
	}
}
