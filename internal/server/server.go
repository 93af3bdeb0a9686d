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
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schemavault/schemavault/internal/blob"
	"github.com/schemavault/schemavault/internal/config"
	"github.com/schemavault/schemavault/internal/engine"
	"github.com/schemavault/schemavault/internal/logging"
	"github.com/schemavault/schemavault/internal/metrics"
	"github.com/schemavault/schemavault/internal/middleware"
	"github.com/schemavault/schemavault/internal/storage"
)

// Server represents the schema registry HTTP server
type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *gin.Engine
	engine     *engine.Engine
	logger     *logging.Logger
	metrics    metrics.MetricsProvider
}

// New creates a new registry server
func New(cfg *config.Config) (*Server, error) {
	// Create logger
	logger := logging.NewLogger(cfg.Logging).WithComponent("server")

	// Create metrics if enabled
	var metricsInstance metrics.MetricsProvider
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsInstance = metrics.NewMetricsProvider()
	}

	// Create metadata store
	storageConfig := storage.StorageConfig{Type: cfg.Storage.Type}
	if cfg.Storage.Database != nil {
		storageConfig.Database = &storage.DatabaseStorageConfig{
			Driver:           cfg.Storage.Database.Driver,
			ConnectionString: cfg.Storage.Database.ConnectionString,
			MaxConnections:   cfg.Storage.Database.MaxConnections,
			MaxIdleTime:      cfg.Storage.Database.MaxIdleTime,
		}
	}
	metadata, err := storage.NewMetadataStore(storageConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata store: %w", err)
	}

	// Create blob store
	blobs, err := blob.NewStore(blob.StoreConfig{
		Type:     cfg.Blob.Type,
		BasePath: cfg.Blob.BasePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	// Create versioning engine
	vaultEngine := engine.New(metadata, blobs, logging.NewLogger(cfg.Logging))

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()

	// Create server
	server := &Server{
		config:  cfg,
		router:  router,
		engine:  vaultEngine,
		logger:  logger,
		metrics: metricsInstance,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Configure TLS if enabled
	if cfg.TLS.Enabled {
		tlsConfig, err := server.createTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		server.httpServer.TLSConfig = tlsConfig
	}

	return server, nil
}

// NewWithEngine creates a server around an existing engine, used by tests.
func NewWithEngine(cfg *config.Config, vaultEngine *engine.Engine) *Server {
	gin.SetMode(gin.TestMode)

	server := &Server{
		config: cfg,
		router: gin.New(),
		engine: vaultEngine,
		logger: logging.NewLogger(cfg.Logging).WithComponent("server"),
	}
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		server.metrics = metrics.NewMetricsProvider()
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.config.TLS.Enabled {
		return s.httpServer.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and releases the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.engine.Close()
}

// GetRouter returns the Gin router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(middleware.Logger(s.config.Logging))

	// CORS middleware
	s.router.Use(middleware.CORS())

	// Request ID middleware
	s.router.Use(middleware.RequestID())

	// Request size limit middleware
	s.router.Use(middleware.RequestSizeLimit(s.config.Upload.MaxSize))

	// Security headers middleware
	s.router.Use(middleware.SecurityHeaders())
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	// Capture server instance to avoid method value binding issues
	server := s

	// Health check endpoints
	server.router.GET("/health", func(c *gin.Context) { server.handleHealth(c) })
	server.router.GET("/ready", func(c *gin.Context) { server.handleReady(c) })

	// Registry API v1
	v1 := server.router.Group("/v1")
	{
		// Schema endpoints. The target is named by query parameters
		// (application required, service optional) so names with
		// path-hostile characters work unescaped.
		v1.POST("/schemas", server.withRequestMetrics(func(c *gin.Context) { server.handleUploadSchema(c) }))
		v1.GET("/schemas/latest", server.withRequestMetrics(func(c *gin.Context) { server.handleGetLatestSchema(c) }))
		v1.GET("/schemas/versions", server.withRequestMetrics(func(c *gin.Context) { server.handleListVersions(c) }))
		v1.GET("/schemas/versions/:version", server.withRequestMetrics(func(c *gin.Context) { server.handleDownloadVersion(c) }))
		v1.GET("/schemas/versions/:version/info", server.withRequestMetrics(func(c *gin.Context) { server.handleGetVersionInfo(c) }))

		// Catalog endpoints
		v1.GET("/applications", server.withRequestMetrics(func(c *gin.Context) { server.handleListApplications(c) }))
		v1.GET("/applications/:application/services", server.withRequestMetrics(func(c *gin.Context) { server.handleListServices(c) }))
	}

	if server.metrics != nil {
		server.router.GET("/metrics", func(c *gin.Context) { server.handleMetrics(c) })
	}
}

// createTLSConfig creates TLS configuration
func (s *Server) createTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13, // Default to TLS 1.3
		CipherSuites: []uint16{
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_CHACHA20_POLY1305_SHA256,
		},
		PreferServerCipherSuites: true,
	}

	// Set minimum TLS version based on configuration
	switch s.config.TLS.MinVersion {
	case "1.2":
		tlsConfig.MinVersion = tls.VersionTLS12
	case "1.3":
		tlsConfig.MinVersion = tls.VersionTLS13
	default:
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	return tlsConfig, nil
}

// handleHealth handles health check requests (liveness probe)
func (s *Server) handleHealth(c *gin.Context) {
	health := s.checkHealth()

	statusCode := http.StatusOK
	if !health.Healthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// handleReady handles readiness check requests (readiness probe)
func (s *Server) handleReady(c *gin.Context) {
	readiness := s.checkReadiness(c.Request.Context())

	statusCode := http.StatusOK
	if !readiness.Ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readiness)
}

// handleMetrics handles metrics requests
func (s *Server) handleMetrics(c *gin.Context) {
	if s.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics not enabled"})
		return
	}

	data, err := s.metrics.ToJSON()
	if err != nil {
		s.logger.Error("Failed to serialize metrics", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serialize metrics"})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Data(http.StatusOK, "application/json", data)
}

// HealthStatus represents the health status of the registry
type HealthStatus struct {
	Status     string            `json:"status"`
	Healthy    bool              `json:"healthy"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// ReadinessStatus represents the readiness status of the registry
type ReadinessStatus struct {
	Status       string            `json:"status"`
	Ready        bool              `json:"ready"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// checkHealth performs basic health checks (liveness)
func (s *Server) checkHealth() HealthStatus {
	healthy := true
	components := make(map[string]string)

	if s.router == nil {
		healthy = false
		components["router"] = "not_initialized"
	} else {
		components["router"] = "healthy"
	}

	if s.engine == nil {
		healthy = false
		components["engine"] = "not_initialized"
	} else {
		components["engine"] = "healthy"
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:     status,
		Healthy:    healthy,
		Timestamp:  time.Now().UTC(),
		Version:    "1.0",
		Components: components,
	}
}

// checkReadiness verifies both backing stores are reachable
func (s *Server) checkReadiness(ctx context.Context) ReadinessStatus {
	ready := true
	dependencies := make(map[string]string)

	if s.engine != nil {
		if err := s.engine.HealthCheck(ctx); err != nil {
			ready = false
			dependencies["storage"] = "unavailable"
		} else {
			dependencies["storage"] = "ready"
		}
	} else {
		ready = false
		dependencies["storage"] = "not_initialized"
	}

	status := "ready"
	if !ready {
		status = "not_ready"
	}

	return ReadinessStatus{
		Status:       status,
		Ready:        ready,
		Timestamp:    time.Now().UTC(),
		Version:      "1.0",
		Dependencies: dependencies,
	}
}
