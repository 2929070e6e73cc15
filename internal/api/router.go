package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reelgrid/reelgrid/internal/auth"
	"github.com/reelgrid/reelgrid/internal/catalog"
	"github.com/reelgrid/reelgrid/internal/generate"
	"github.com/reelgrid/reelgrid/internal/metrics"
	"github.com/reelgrid/reelgrid/internal/moderation"
	"github.com/reelgrid/reelgrid/internal/ratelimit"
)

// Server represents the REST API server
type Server struct {
	router      *gin.Engine
	recordRepo  *catalog.RecordRepository
	episodeRepo *catalog.EpisodeRepository
	moderation  *moderation.Service
	generator   *generate.Service
	jwt         auth.JWT
	limiter     *ratelimit.Limiter // Optional: nil disables rate limiting
	metrics     *metrics.Metrics   // Optional: nil disables instrumentation
}

// NewServer creates a new API server
func NewServer(
	recordRepo *catalog.RecordRepository,
	episodeRepo *catalog.EpisodeRepository,
	moderationSvc *moderation.Service,
	generator *generate.Service,
	jwt auth.JWT,
	limiter *ratelimit.Limiter, // Can be nil
	m *metrics.Metrics, // Can be nil
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:      gin.New(),
		recordRepo:  recordRepo,
		episodeRepo: episodeRepo,
		moderation:  moderationSvc,
		generator:   generator,
		jwt:         jwt,
		limiter:     limiter,
		metrics:     m,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging + instrumentation middleware
	s.router.Use(func(c *gin.Context) {
		c.Next()
		slog.Info("API request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(
				c.Request.Method,
				c.FullPath(),
				strconv.Itoa(c.Writer.Status()),
			).Inc()
		}
	})

	// CORS for development
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Public catalog surface
	api.GET("/records", s.listRecords)
	api.GET("/records/:id", s.getRecord)
	api.GET("/records/slug/:slug", s.getRecordBySlug)
	api.GET("/records/:id/links", s.getRecordLinks)
	api.GET("/records/:id/episodes", s.listEpisodes)
	api.GET("/status", s.getStatus)

	// Operator surface: bearer token required, rate limited
	ops := api.Group("")
	ops.Use(auth.RequireOperator(s.jwt))
	if s.limiter != nil {
		ops.Use(s.limiter.Middleware())
	}

	ops.POST("/records", s.createRecord)
	ops.PUT("/records/:id", s.updateRecord)
	ops.DELETE("/records/:id", s.deleteRecord)
	ops.POST("/records/:id/episodes", s.addEpisode)

	ops.GET("/moderation/queue", s.moderationQueue)
	ops.POST("/moderation/:id", s.moderate)

	ops.POST("/generate", s.generateRecords)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var vErr *catalog.ValidationError
	switch {
	case errors.As(err, &vErr):
		errorResponse(c, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, catalog.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "Record not found")
	case errors.Is(err, catalog.ErrSlugConflict):
		errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, generate.ErrBatchFailed):
		errorResponse(c, http.StatusBadGateway, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// parseID parses and validates an ID parameter
func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid ID format")
		return 0, false
	}
	if id <= 0 {
		errorResponse(c, http.StatusBadRequest, "ID must be positive")
		return 0, false
	}
	return id, true
}

// parsePage reads page/limit query parameters into a normalized request.
func parsePage(c *gin.Context) catalog.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return catalog.PageRequest{Page: page, Limit: limit}.Normalize()
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
