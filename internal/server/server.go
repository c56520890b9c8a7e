// Package server exposes the prontuário workflow over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/pluma/prontuario/internal/audit"
	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/listing"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/storage"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/pluma/prontuario/internal/webhook"
)

// RecordStore is the persistence the handlers need.
type RecordStore interface {
	review.Creator
	listing.Lister
	GetRecord(ctx context.Context, userID, id string) (domain.Record, error)
	UpdateRecord(ctx context.Context, userID, id string, upd domain.RecordUpdate) (domain.Record, error)
	DeleteRecord(ctx context.Context, userID, id string) error
}

// Deps are the collaborators wired by main.
type Deps struct {
	Auth      *session.Authenticator
	Sessions  *session.Signer
	Records   RecordStore
	Objects   storage.Store
	Processor webhook.Processor
	// Media validates /media links. Nil when objects are served elsewhere.
	Media *storage.URLSigner
	Audit *audit.Logger
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine

	auth       *session.Authenticator
	sessions   *session.Signer
	records    RecordStore
	objects    storage.Store
	media      *storage.URLSigner
	audit      *audit.Logger
	uploads    *upload.Client
	workspaces *registry
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.Default()

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Failed to set trusted proxies", "error", err)
	}

	if deps.Audit == nil {
		deps.Audit = audit.New(logger)
	}

	server := &Server{
		config:     cfg,
		logger:     logger.With("component", "server"),
		router:     router,
		auth:       deps.Auth,
		sessions:   deps.Sessions,
		records:    deps.Records,
		objects:    deps.Objects,
		media:      deps.Media,
		audit:      deps.Audit,
		uploads:    upload.New(deps.Objects, upload.ServerStrategy{}, cfg.MaxUploadBytes, logger),
		workspaces: newRegistry(deps.Objects, deps.Processor, cfg, logger),
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	router.Use(blockSuspicious(cfg.BlockedIPs, cfg.BlockedAgents, logger))
	router.Use(maxBodySize(cfg.MaxUploadBytes + multipartOverhead))
	server.setupRoutes()

	return server
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/session", s.handleLogin)
		api.DELETE("/session", s.handleLogout)

		// the upload client resolves the session itself
		api.POST("/uploads", s.handleUpload)

		authed := api.Group("", s.requireSession)
		authed.GET("/workflow", s.handleWorkflowState)
		authed.GET("/workflow/events", s.handleWorkflowEvents)
		authed.POST("/workflow/submit", s.handleWorkflowSubmit)
		authed.POST("/workflow/back", s.handleWorkflowBack)
		authed.POST("/workflow/new", s.handleWorkflowNew)
		authed.POST("/workflow/library", s.handleWorkflowLibrary)
		authed.POST("/workflow/save", s.handleWorkflowSave)

		authed.GET("/records", s.handleListRecords)
		authed.GET("/records/:id", s.handleGetRecord)
		authed.PATCH("/records/:id", s.handleUpdateRecord)
		authed.DELETE("/records/:id", s.handleDeleteRecord)
	}

	s.router.GET("/media/*path", s.handleMedia)

	// Serve the front-end as fallback
	// NoRoute only triggers when no explicit routes match (like /health)
	s.router.NoRoute(static.Serve("/", static.LocalFile(s.config.StaticDir, true)))
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "prontuario",
	})
}
