// Package httpapi exposes the clinic store as a local JSON API for a dashboard front end.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	DB             *sql.DB
	Logger         *zap.Logger
	Secret         []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
}

type Server struct {
	db      *sql.DB
	log     *zap.Logger
	secret  []byte
	ttl     time.Duration
	origins []string
	now     func() time.Time
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Server{
		db:      opts.DB,
		log:     log,
		secret:  opts.Secret,
		ttl:     ttl,
		origins: opts.AllowedOrigins,
		now:     time.Now,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))
	if len(s.origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	api.POST("/auth/login", s.login)

	protected := api.Group("")
	protected.Use(s.authRequired())
	{
		protected.GET("/me", s.me)
		protected.GET("/dashboard", s.dashboard)
		protected.GET("/theme", s.getTheme)
		protected.PUT("/theme", s.putTheme)
		protected.GET("/export", s.export)
		protected.POST("/import", s.importSnapshot)

		patients := protected.Group("/patients")
		{
			patients.GET("", s.listPatients)
			patients.POST("", s.createPatient)
			patients.GET("/:id", s.getPatient)
			patients.PATCH("/:id", s.updatePatient)
			patients.DELETE("/:id", s.deletePatient)
			patients.POST("/:id/notes", s.addNote)
			patients.POST("/:id/anthropometry", s.addAnthropometry)
			patients.GET("/:id/adherence", s.listAdherence)
			patients.PUT("/:id/adherence/:date", s.setAdherence)
		}
	}
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
