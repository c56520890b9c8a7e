package server

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/session"
)

const (
	sessionKey = "session"

	// multipartOverhead is the body allowance beyond the audio itself.
	multipartOverhead = 1 << 20
)

// setupSecurityMiddleware configures and applies security middleware to the router
func setupSecurityMiddleware(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	// Configure HSTS for production only
	stsSeconds := int64(0)
	if cfg.IsProduction() {
		stsSeconds = int64(cfg.HSTSMaxAge)
	}

	var mediaOrigins []string
	if cfg.StorageBackend == "s3" {
		mediaOrigins = append(mediaOrigins, "https:")
	}

	// Create and apply security middleware
	secureMiddleware := secure.New(secure.Config{
		STSSeconds:            stsSeconds,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: config.BuildCSP(cfg.CSPMode, mediaOrigins...),
	})
	router.Use(secureMiddleware)

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	logger.Debug("Configured security middleware",
		"hsts_enabled", cfg.IsProduction(),
		"csp_mode", cfg.CSPMode,
		"cors_origins", cfg.AllowedOrigins,
	)
}

// blockSuspicious rejects listed client IPs and crawler user agents.
// Googlebot is let through.
func blockSuspicious(ips, agents []string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		userAgent := c.Request.UserAgent()
		lowered := strings.ToLower(userAgent)

		suspicious := slices.ContainsFunc(agents, func(agent string) bool {
			return agent != "" && strings.Contains(lowered, strings.ToLower(agent))
		})

		if slices.Contains(ips, ip) || (suspicious && !strings.Contains(userAgent, "Googlebot")) {
			logger.Info("request blocked", "ip", ip, "user_agent", userAgent, "path", c.Request.URL.Path)
			c.String(http.StatusForbidden, "Access Denied")
			c.Abort()
			return
		}

		c.Next()
	}
}

// maxBodySize caps request bodies at limit bytes.
func maxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// requireSession rejects requests without a valid session cookie.
func (s *Server) requireSession(c *gin.Context) {
	current, err := s.source(c).Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}

	c.Set(sessionKey, current)
	c.Next()
}

// source reads the session cookie on every call, so collaborators never
// act on an identity that expired mid-request.
func (s *Server) source(c *gin.Context) session.Source {
	return session.RequestSource(s.sessions, c.Request)
}

func currentSession(c *gin.Context) session.Session {
	v, _ := c.Get(sessionKey)
	current, _ := v.(session.Session)
	return current
}
