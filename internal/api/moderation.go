package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reelgrid/reelgrid/internal/catalog"
	"github.com/reelgrid/reelgrid/internal/moderation"
)

// ModerationRequest names the action to apply to a record.
type ModerationRequest struct {
	Action moderation.Action `json:"action" binding:"required"`
}

// moderationQueue lists records awaiting review, newest first.
func (s *Server) moderationQueue(c *gin.Context) {
	page := parsePage(c)

	records, err := s.moderation.Queue(page)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []*catalog.Record{}
	}

	info := catalog.NewPageInfo(page, len(records))
	if withTotal, _ := strconv.ParseBool(c.Query("with_total")); withTotal {
		total, err := s.moderation.QueueCount()
		if err != nil {
			respondError(c, err)
			return
		}
		info.Total = &total
	}

	c.JSON(http.StatusOK, ListResponse{Records: records, Pagination: info})
}

func (s *Server) moderate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Action.Valid() {
		errorResponse(c, http.StatusBadRequest, "Unknown action "+string(req.Action))
		return
	}

	rec, err := s.moderation.Apply(id, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ModerationActions.WithLabelValues(string(req.Action)).Inc()
	}

	// Reject leaves nothing behind to return.
	if rec == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, rec)
}
