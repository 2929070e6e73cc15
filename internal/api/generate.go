package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelgrid/reelgrid/internal/catalog"
	"github.com/reelgrid/reelgrid/internal/generate"
)

// GenerateRequest asks for drafts to be synthesized. Either Count (bulk)
// or Title (single record) drives the request.
type GenerateRequest struct {
	Count          int              `json:"count"`
	Title          string           `json:"title"`
	Category       catalog.Category `json:"category"`
	Year           int              `json:"year"`
	SourcePlatform string           `json:"source_platform"`
}

// GenerateResponse reports a bulk batch outcome.
type GenerateResponse struct {
	BatchID  string            `json:"batch_id"`
	Created  []*catalog.Record `json:"created"`
	Failures int               `json:"failures"`
}

func (s *Server) generateRecords(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	// Explicit title: single-record convenience path.
	if req.Title != "" {
		rec, err := s.generator.Single(ctx, generate.SingleInput{
			Title:          req.Title,
			Category:       req.Category,
			Year:           req.Year,
			SourcePlatform: req.SourcePlatform,
		})
		if err != nil {
			// Rejected input is the caller's error, not a generation
			// failure; only synthesis/persist failures are counted.
			var vErr *catalog.ValidationError
			if !errors.As(err, &vErr) {
				s.countGeneration(0, 1)
			}
			respondError(c, err)
			return
		}
		s.countGeneration(1, 0)
		c.JSON(http.StatusCreated, rec)
		return
	}

	result, err := s.generator.Bulk(ctx, generate.BulkInput{
		Count:          req.Count,
		Category:       req.Category,
		Year:           req.Year,
		SourcePlatform: req.SourcePlatform,
	})
	if result != nil {
		s.countGeneration(len(result.Created), result.Failures)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	created := result.Created
	if created == nil {
		created = []*catalog.Record{}
	}

	c.JSON(http.StatusCreated, GenerateResponse{
		BatchID:  result.BatchID,
		Created:  created,
		Failures: result.Failures,
	})
}

func (s *Server) countGeneration(created, failed int) {
	if s.metrics == nil {
		return
	}
	if created > 0 {
		s.metrics.GenerationItems.WithLabelValues("created").Add(float64(created))
		s.metrics.RecordsCreated.WithLabelValues("generator").Add(float64(created))
	}
	if failed > 0 {
		s.metrics.GenerationItems.WithLabelValues("failed").Add(float64(failed))
	}
}
