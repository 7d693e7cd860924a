// Package api exposes the pipeline over HTTP for dashboards and other
// display clients.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/pipeline"
	"github.com/ppiankov/finsent/internal/search"
	"github.com/ppiankov/finsent/internal/sentiment"
	"github.com/ppiankov/finsent/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Runner executes ingestion runs
type Runner interface {
	Ingest(ctx context.Context, req pipeline.IngestRequest) (*pipeline.IngestResult, error)
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.RunResult, error)
}

// Server serves the HTTP API
type Server struct {
	runner   Runner
	analyzer sentiment.Analyzer
	store    store.Store
	logger   *zap.Logger
	engine   *gin.Engine
}

// NewServer creates a server. analyzer and st may be nil.
func NewServer(runner Runner, analyzer sentiment.Analyzer, st store.Store, logger *zap.Logger) *Server {
	if st == nil {
		st = store.Disabled{}
	}
	s := &Server{
		runner:   runner,
		analyzer: analyzer,
		store:    st,
		logger:   logging.OrNop(logger),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	v1 := r.Group("/v1")
	v1.POST("/ingest", s.handleIngest)
	v1.POST("/run", s.handleRun)
	v1.POST("/score", s.handleScore)
	v1.GET("/articles", s.handleListArticles)
	v1.GET("/articles/:id", s.handleGetArticle)

	s.engine = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// bindOptional decodes a JSON body; an empty body leaves v at its zero value
func bindOptional(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) requestError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, search.ErrInvalidCountry) || errors.Is(err, search.ErrInvalidLimit) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req pipeline.IngestRequest
	if !bindOptional(c, &req) {
		return
	}

	res, err := s.runner.Ingest(c.Request.Context(), req)
	if err != nil {
		s.requestError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleRun(c *gin.Context) {
	var req pipeline.RunRequest
	if !bindOptional(c, &req) {
		return
	}

	res, err := s.runner.Run(c.Request.Context(), req)
	if err != nil {
		s.requestError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type scoreRequest struct {
	ArticleID string `json:"article_id"`
	Text      string `json:"text"`
}

func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if s.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sentiment scoring is not configured"})
		return
	}

	res, err := s.analyzer.Score(c.Request.Context(), req.ArticleID, req.Text)
	if err != nil {
		s.logger.Error("score failed", zap.String("article_id", req.ArticleID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListArticles(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxListLimit)})
			return
		}
		limit = n
	}

	articles, err := s.store.ListArticles(c.Request.Context(), limit)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles, "count": len(articles)})
}

func (s *Server) handleGetArticle(c *gin.Context) {
	id := c.Param("id")

	article, err := s.store.GetArticle(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return
	}

	scores, err := s.store.ListSentiment(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article, "sentiment": scores})
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("store query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store query failed"})
	}
}
