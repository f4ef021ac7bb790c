package api

import (
	"log/slog"
	"net/http"
	"time"

	"storyboard/server/internal/asset"
	"storyboard/server/internal/credential"
	"storyboard/server/internal/events"
	"storyboard/server/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	sessions *session.Controller
	assets   *asset.Store
	hub      *events.Hub
	checker  credential.Checker
	log      *slog.Logger

	allowedOrigins []string
}

func NewServer(sessions *session.Controller, assets *asset.Store, hub *events.Hub, checker credential.Checker, logger *slog.Logger, allowedOrigins []string) *Server {
	return &Server{
		sessions:       sessions,
		assets:         assets,
		hub:            hub,
		checker:        checker,
		log:            logger,
		allowedOrigins: allowedOrigins,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(s.log))
	r.Use(s.corsMiddleware())

	v1 := r.Group("/api/v1")
	v1.GET("/healthz", func(c *gin.Context) {
		writeData(c, http.StatusOK, gin.H{"status": "ok"})
	})

	v1.POST("/uploads", s.uploadImage)

	v1.GET("/credential", s.getCredential)
	v1.POST("/credential/recheck", s.recheckCredentialGlobal)

	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:session_id", s.getSession)
	v1.DELETE("/sessions/:session_id", s.deleteSession)
	v1.GET("/sessions/:session_id/events", s.streamSessionEvents)
	v1.POST("/sessions/:session_id/mode", s.setMode)
	v1.POST("/sessions/:session_id/generate", s.generate)
	v1.POST("/sessions/:session_id/variations", s.variations)
	v1.POST("/sessions/:session_id/thumbnail", s.thumbnail)
	v1.POST("/sessions/:session_id/search", s.search)
	v1.POST("/sessions/:session_id/storyboard", s.generateStoryboard)
	v1.GET("/sessions/:session_id/storyboard/export", s.exportStoryboard)
	v1.POST("/sessions/:session_id/credential/recheck", s.recheckCredential)

	v1.GET("/assets/:asset_id", s.getAsset)
	v1.DELETE("/assets/:asset_id", s.deleteAsset)

	return r
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "X-Trace-Id", "Last-Event-ID"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.allowedOrigins) == 1 && s.allowedOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.allowedOrigins
	}
	return cors.New(cfg)
}
