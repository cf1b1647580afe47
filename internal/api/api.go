// Package api serves the HTTP surface: WebSocket audio ingest, live status
// and the session catalog.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/recording"
)

// Server holds the collaborators the handlers need.
type Server struct {
	sup       *recording.Supervisor
	cat       *catalog.Catalog
	queueSize int
	// ctx bounds sessions started by ingest connections.
	ctx context.Context
}

// New returns a server. Sessions started through the ingest endpoint stop
// when ctx is cancelled.
func New(ctx context.Context, sup *recording.Supervisor, cat *catalog.Catalog, queueSize int) *Server {
	return &Server{sup: sup, cat: cat, queueSize: queueSize, ctx: ctx}
}

// Engine builds the gin router.
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.SetTrustedProxies(nil)

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(failure(http.StatusNotFound, "Route not found", nil).AsGinResponse())
	})

	s.RegisterRoutes(engine.Group("/api"))
	return engine
}

// RegisterRoutes adds every endpoint to g.
func (s *Server) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", getHealth)
	g.GET("/status", s.getStatus)
	g.GET("/stream", s.getStream) // WebSocket ingest

	sessions := g.Group("/sessions")
	sessions.GET("", s.listSessions)
	sessions.GET("/:id", s.getSession)
	sessions.PUT("/:id/title", s.putTitle)
	sessions.POST("/:id/summary", s.postSummary)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API]: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func getHealth(c *gin.Context) {
	c.JSON(success("ok", gin.H{"time": time.Now().UTC()}).AsGinResponse())
}
