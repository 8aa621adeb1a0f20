// Package server exposes the dashboard controller over HTTP.
package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/authgate"
	"github.com/webinsight/dashboard/config"
	"github.com/webinsight/dashboard/export"
	"github.com/webinsight/dashboard/locale"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/middleware"
	"github.com/webinsight/dashboard/prefs"
	"github.com/webinsight/dashboard/session"
	"github.com/webinsight/dashboard/stats"
)

// Server holds the wired components behind the HTTP API.
type Server struct {
	cfg      *config.Config
	engine   analysis.Engine
	ctrl     *session.Controller
	articles *session.ArticleSession
	gate     *authgate.Gate
	exporter *export.Orchestrator
	loc      *locale.Translator
	store    *prefs.Store
	usage    *stats.Storage
	logger   logging.Logger

	mu     sync.Mutex
	replay string
}

// New assembles a server from its components. usage may be nil to disable
// statistics collection.
func New(cfg *config.Config, engine analysis.Engine, ctrl *session.Controller, articles *session.ArticleSession, gate *authgate.Gate, exporter *export.Orchestrator, loc *locale.Translator, store *prefs.Store, usage *stats.Storage, logger logging.Logger) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		ctrl:     ctrl,
		articles: articles,
		gate:     gate,
		exporter: exporter,
		loc:      loc,
		store:    store,
		usage:    usage,
		logger:   logger,
	}
}

// Router builds the gin engine with middleware and all API routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler(s.logger))

	limiter := middleware.NewRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
	r.Use(limiter.RateLimit())
	r.Use(s.cors())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)

		api.POST("/analyze", s.analyze)
		api.GET("/dashboard", s.dashboard)
		api.POST("/reset", s.reset)

		api.POST("/article", s.analyzeArticle)
		api.POST("/article/rewrite", s.rewriteArticle)

		api.POST("/seo/rewrite", s.rewriteSEO)
		api.POST("/content/refine", s.refineContent)

		api.POST("/export", s.exportReport)

		auth := api.Group("/auth")
		{
			auth.GET("/session", s.authSession)
			auth.POST("/login", s.login)
			auth.POST("/register", s.register)
			auth.POST("/federated", s.federated)
			auth.POST("/dismiss", s.dismiss)
			auth.PUT("/mode", s.switchMode)
			auth.POST("/logout", s.logout)
		}

		api.GET("/locale", s.getLocale)
		api.PUT("/locale", s.setLocale)
		api.GET("/theme", s.getTheme)
		api.PUT("/theme", s.setTheme)
	}

	return r
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("server starting", logging.String("addr", addr))
	return s.Router().Run(addr)
}

func (s *Server) cors() gin.HandlerFunc {
	origin := s.cfg.AllowedOrigin
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept-Language, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) statistics(c *gin.Context) {
	if s.usage == nil {
		c.JSON(http.StatusOK, gin.H{"months": []stats.MonthSnapshot{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": s.usage.Snapshot()})
}
