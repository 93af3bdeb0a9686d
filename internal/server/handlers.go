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

package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schemavault/schemavault/internal/engine"
	"github.com/schemavault/schemavault/internal/errors"
	"github.com/schemavault/schemavault/internal/types"
)

// handleUploadSchema handles schema upload requests. The request is
// multipart form data: "application" (required), "service" (optional),
// and "file" carrying the schema document.
func (s *Server) handleUploadSchema(c *gin.Context) {
	application := strings.TrimSpace(c.PostForm("application"))
	service := strings.TrimSpace(c.PostForm("service"))

	if application == "" {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Form field 'application' is required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		// MaxBytesReader turns an oversized body into a read error
		// before the multipart form can be parsed.
		if strings.Contains(err.Error(), "request body too large") {
			s.respondWithError(c, http.StatusRequestEntityTooLarge, string(errors.ErrPayloadTooLarge),
				fmt.Sprintf("Request body too large. Maximum size is %d bytes", s.config.Upload.MaxSize), nil)
			return
		}
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Multipart form field 'file' is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Failed to open uploaded file", nil)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Failed to read uploaded file", nil)
		return
	}

	resp, err := s.engine.Upload(c.Request.Context(), engine.Upload{
		Application:      application,
		Service:          service,
		Raw:              raw,
		OriginalFilename: fileHeader.Filename,
		ContentType:      fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOperation("upload", "success", 0, int64(len(raw)))
	}
	s.respondWithSuccess(c, http.StatusCreated, resp)
}

// handleGetLatestSchema returns the metadata of the latest stored
// version for a target. Bytes are served by the version-download route.
func (s *Server) handleGetLatestSchema(c *gin.Context) {
	application, service, ok := s.targetParams(c)
	if !ok {
		return
	}

	stored, err := s.engine.GetLatest(c.Request.Context(), application, service)
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.respondWithSuccess(c, http.StatusOK, schemaInfo(stored))
}

// handleDownloadVersion returns one stored version as a file download.
func (s *Server) handleDownloadVersion(c *gin.Context) {
	application, service, ok := s.targetParams(c)
	if !ok {
		return
	}

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			fmt.Sprintf("Version must be a positive integer, got %q", c.Param("version")), nil)
		return
	}

	stored, data, err := s.engine.GetVersion(c.Request.Context(), application, service, version)
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.serveSchema(c, stored, data)
}

// handleListVersions lists all version numbers stored for a target.
func (s *Server) handleListVersions(c *gin.Context) {
	application, service, ok := s.targetParams(c)
	if !ok {
		return
	}

	list, err := s.engine.ListVersions(c.Request.Context(), application, service)
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.respondWithSuccess(c, http.StatusOK, list)
}

// handleListApplications lists all known applications.
func (s *Server) handleListApplications(c *gin.Context) {
	list, err := s.engine.ListApplications(c.Request.Context())
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.respondWithSuccess(c, http.StatusOK, list)
}

// handleListServices lists all services under one application.
func (s *Server) handleListServices(c *gin.Context) {
	application := c.Param("application")

	list, err := s.engine.ListServices(c.Request.Context(), application)
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.respondWithSuccess(c, http.StatusOK, list)
}

// targetParams extracts the target naming query parameters shared by
// the retrieval endpoints.
func (s *Server) targetParams(c *gin.Context) (application, service string, ok bool) {
	application = strings.TrimSpace(c.Query("application"))
	service = strings.TrimSpace(c.Query("service"))

	if application == "" {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Query parameter 'application' is required", nil)
		return "", "", false
	}
	return application, service, true
}

// serveSchema writes canonical schema bytes to the response as an
// attachment download.
func (s *Server) serveSchema(c *gin.Context, stored *engine.StoredSchema, data []byte) {
	c.Header("X-Schema-Version", strconv.Itoa(stored.Record.Version))
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", downloadFilename(stored)))

	if s.metrics != nil {
		s.metrics.RecordOperation("download", "success", 0, int64(len(data)))
	}
	c.Data(http.StatusOK, "application/json", data)
}

// downloadFilename builds the suggested filename for a schema download.
func downloadFilename(stored *engine.StoredSchema) string {
	if stored.Service != "" {
		return fmt.Sprintf("%s-%s-%d.json", stored.Application, stored.Service, stored.Record.Version)
	}
	return fmt.Sprintf("%s-%d.json", stored.Application, stored.Record.Version)
}

// handleGetVersionInfo returns the metadata recorded for one stored
// version without its bytes.
func (s *Server) handleGetVersionInfo(c *gin.Context) {
	application, service, ok := s.targetParams(c)
	if !ok {
		return
	}

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			fmt.Sprintf("Version must be a positive integer, got %q", c.Param("version")), nil)
		return
	}

	stored, _, err := s.engine.GetVersion(c.Request.Context(), application, service, version)
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.respondWithSuccess(c, http.StatusOK, schemaInfo(stored))
}

// schemaInfo maps a stored version record onto the metadata response
// shape shared by the latest and version-info endpoints.
func schemaInfo(stored *engine.StoredSchema) types.SchemaInfo {
	return types.SchemaInfo{
		Application:  stored.Application,
		Service:      stored.Service,
		Version:      stored.Record.Version,
		Location:     stored.Record.Location,
		DocumentInfo: stored.Record.DocumentInfo,
		CreatedAt:    stored.Record.CreatedAt,
	}
}

// respondEngineError translates engine errors into HTTP responses.
func (s *Server) respondEngineError(c *gin.Context, err error) {
	if ve, ok := errors.AsVaultError(err); ok {
		s.respondWithVaultError(c, ve)
		return
	}
	s.respondWithVaultError(c, errors.NewInternalError("unexpected error", err))
}
