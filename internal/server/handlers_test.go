package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/schemavault/schemavault/internal/blob"
	"github.com/schemavault/schemavault/internal/config"
	"github.com/schemavault/schemavault/internal/engine"
	"github.com/schemavault/schemavault/internal/logging"
	"github.com/schemavault/schemavault/internal/storage"
	"github.com/schemavault/schemavault/internal/types"
)

const validSchemaJSON = `{
	"openapi": "3.0.0",
	"info": {"title": "Test API"},
	"paths": {"/users": {}}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Upload:  config.UploadConfig{MaxSize: 1024 * 1024},
		Logging: config.LoggingConfig{Level: "fatal", Format: "json"},
		Metrics: &config.MetricsConfig{Enabled: true},
	}
	logger := logging.NewLogger(cfg.Logging)
	vaultEngine := engine.New(storage.NewMemoryStorage(), blob.NewMemoryStore(), logger)
	return NewWithEngine(cfg, vaultEngine)
}

func multipartUpload(t *testing.T, application, service, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if application != "" {
		if err := writer.WriteField("application", application); err != nil {
			t.Fatalf("failed to write application field: %v", err)
		}
	}
	if service != "" {
		if err := writer.WriteField("service", service); err != nil {
			t.Fatalf("failed to write service field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write file content: %v", err)
		}
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, srv *Server, application, service, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, application, service, "openapi.json", content)
	req := httptest.NewRequest(http.MethodPost, "/v1/schemas", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestUploadSchema_Created(t *testing.T) {
	srv := newTestServer(t)

	w := doUpload(t, srv, "crapi", "identity", validSchemaJSON)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp types.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Version != 1 || resp.Application != "crapi" || resp.Service != "identity" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestUploadSchema_SequentialVersions(t *testing.T) {
	srv := newTestServer(t)

	for want := 1; want <= 2; want++ {
		w := doUpload(t, srv, "crapi", "", validSchemaJSON)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var resp types.UploadResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Version != want {
			t.Errorf("expected version %d, got %d", want, resp.Version)
		}
	}
}

func TestUploadSchema_MissingApplication(t *testing.T) {
	srv := newTestServer(t)

	w := doUpload(t, srv, "", "identity", validSchemaJSON)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "INVALID_REQUEST_FORMAT" {
		t.Errorf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestUploadSchema_MissingFile(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartUpload(t, "crapi", "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/v1/schemas", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadSchema_InvalidDocument(t *testing.T) {
	srv := newTestServer(t)

	w := doUpload(t, srv, "crapi", "", `{"info": {}, "paths": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decodeError(t, w); resp.Error.Code != "SCHEMA_VALIDATION_FAILED" {
		t.Errorf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestUploadSchema_NotJSONOrYAML(t *testing.T) {
	srv := newTestServer(t)

	w := doUpload(t, srv, "crapi", "", "plain prose, not a schema")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "SCHEMA_NOT_JSON_OR_YAML" {
		t.Errorf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestGetLatestSchema(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "identity", validSchemaJSON)
	doUpload(t, srv, "crapi", "identity", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/latest?application=crapi&service=identity", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Latest returns the metadata record, not the schema bytes.
	var info types.SchemaInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if info.Version != 2 || info.Application != "crapi" || info.Service != "identity" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Location != "crapi/identity/2.json" {
		t.Errorf("unexpected location: %s", info.Location)
	}
	if len(info.DocumentInfo) == 0 {
		t.Errorf("expected document info in latest metadata")
	}
}

func TestGetLatestSchema_MissingApplicationParam(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/latest", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetLatestSchema_NotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/latest?application=nope", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "APPLICATION_NOT_FOUND" {
		t.Errorf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestDownloadVersion(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "identity", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/versions/1?application=crapi&service=identity", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "crapi-identity-1.json") {
		t.Errorf("unexpected Content-Disposition: %s", disposition)
	}
}

func TestDownloadVersion_BadVersion(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "", validSchemaJSON)

	for _, v := range []string{"0", "-1", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/schemas/versions/"+v+"?application=crapi", nil)
		w := httptest.NewRecorder()
		srv.GetRouter().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("version %q: expected 400, got %d", v, w.Code)
		}
	}
}

func TestDownloadVersion_NotFound(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/versions/9?application=crapi", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "VERSION_NOT_FOUND" {
		t.Errorf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestGetVersionInfo(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "identity", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/versions/1/info?application=crapi&service=identity", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var info types.SchemaInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode info: %v", err)
	}
	if info.Version != 1 || info.Location != "crapi/identity/1.json" {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(info.DocumentInfo) == 0 {
		t.Errorf("expected document info to be recorded")
	}
}

func TestListVersionsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "identity", validSchemaJSON)
	doUpload(t, srv, "crapi", "identity", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/v1/schemas/versions?application=crapi&service=identity", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var list types.VersionsList
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Versions) != 2 || list.Versions[0] != 1 || list.Versions[1] != 2 {
		t.Errorf("unexpected versions: %v", list.Versions)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "beta", "svc", validSchemaJSON)
	doUpload(t, srv, "alpha", "", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/v1/applications", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var apps types.ApplicationsList
	json.Unmarshal(w.Body.Bytes(), &apps)
	if len(apps.Applications) != 2 || apps.Applications[0] != "alpha" {
		t.Errorf("unexpected applications: %v", apps.Applications)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/applications/beta/services", nil)
	w = httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var services types.ServicesList
	json.Unmarshal(w.Body.Bytes(), &services)
	if len(services.Services) != 1 || services.Services[0] != "svc" {
		t.Errorf("unexpected services: %v", services.Services)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/applications/nope/services", nil)
	w = httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown application, got %d", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.GetRouter().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doUpload(t, srv, "crapi", "", validSchemaJSON)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("metrics response is not JSON: %v", err)
	}
	if _, ok := data["http"]; !ok {
		t.Errorf("expected http metrics section: %v", data)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected generated X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("expected propagated request ID, got %q", got)
	}
}
