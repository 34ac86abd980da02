// Package server exposes the scripting workflow over HTTP using gin. Each
// session is a workflow.Machine held by a Registry; state changes are
// pushed to browsers over a WebSocket.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/credential"
)

// KeyValidator checks a candidate API key before it is saved.
type KeyValidator interface {
	ValidateKey(ctx context.Context, apiKey string) error
}

// Options configures a Server.
type Options struct {
	Registry    *Registry
	Credentials *credential.Provider

	// KeyChecker, when set, validates Gemini keys on PUT
	// /api/credentials/gemini?check=true.
	KeyChecker KeyValidator

	// WaitForImages makes storyboard generation respond only after every
	// scene image is resolved. Used on Lambda, where background work is
	// frozen once the response is sent.
	WaitForImages bool
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	return &Server{opts: opts}
}

// Router builds the gin engine with every API route.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), localCORS())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/structures", s.handleStructures)
	api.GET("/storyboard/options", s.handleStoryboardOptions)

	api.GET("/credentials/:name", s.handleCredentialStatus)
	api.PUT("/credentials/:name", s.handleCredentialSave)
	api.DELETE("/credentials/:name", s.handleCredentialClear)

	api.POST("/sessions", s.handleCreateSession)
	sess := api.Group("/sessions/:id", s.loadSession)
	sess.GET("", s.handleGetSession)
	sess.POST("/analyze", s.handleAnalyze)
	sess.POST("/files", s.handleFiles)
	sess.POST("/topics/regenerate", s.handleRegenerateTopics)
	sess.POST("/topics/select", s.handleSelectTopic)
	sess.POST("/structure", s.handleSelectStructure)
	sess.POST("/storyboard", s.handleOpenStoryboard)
	sess.PATCH("/storyboard/settings", s.handleChangeSettings)
	sess.POST("/storyboard/generate", s.handleGenerateStoryboard)
	sess.POST("/back", s.handleBack)
	sess.POST("/reset", s.handleReset)
	sess.GET("/script", s.handleScript)
	sess.GET("/events", s.handleEvents)

	return r
}

// --- Middleware ---

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			log.Info().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	}
}

// localCORS only allows localhost origins.
func localCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if isLocalOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}
