package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reelgrid/reelgrid/internal/catalog"
)

// RecordInput carries the mutable fields of a catalog record for create
// and update requests.
type RecordInput struct {
	Title          string                    `json:"title"`
	Description    string                    `json:"description"`
	Year           int                       `json:"year"`
	Category       catalog.Category          `json:"category"`
	Genres         []string                  `json:"genres"`
	Languages      []string                  `json:"languages"`
	IsDualAudio    bool                      `json:"is_dual_audio"`
	Director       string                    `json:"director"`
	Cast           []string                  `json:"cast"`
	Tags           []string                  `json:"tags"`
	Images         []catalog.Image           `json:"images"`
	DownloadLinks  []catalog.DownloadLinkSet `json:"download_links"`
	StreamingLinks []catalog.StreamingLink   `json:"streaming_links"`
	IsSeries       bool                      `json:"is_series"`
	Visibility     catalog.Visibility        `json:"visibility"`
}

func (in RecordInput) toRecord() *catalog.Record {
	return &catalog.Record{
		Title:          in.Title,
		Description:    in.Description,
		Year:           in.Year,
		Category:       in.Category,
		Genres:         in.Genres,
		Languages:      in.Languages,
		IsDualAudio:    in.IsDualAudio,
		Director:       in.Director,
		Cast:           in.Cast,
		Tags:           in.Tags,
		Images:         in.Images,
		DownloadLinks:  in.DownloadLinks,
		StreamingLinks: in.StreamingLinks,
		IsSeries:       in.IsSeries,
		Visibility:     in.Visibility,
	}
}

// ListResponse is the shape of every paginated listing.
type ListResponse struct {
	Records    []*catalog.Record `json:"records"`
	Pagination catalog.PageInfo  `json:"pagination"`
}

// criteriaFromQuery builds listing criteria from request parameters.
// Empty parameters are treated as absent.
func criteriaFromQuery(c *gin.Context) catalog.Criteria {
	year, _ := strconv.Atoi(c.Query("year"))
	dualAudio, _ := strconv.ParseBool(c.Query("dual_audio"))

	return catalog.Criteria{
		Search:      c.Query("search"),
		Category:    catalog.Category(c.Query("category")),
		Year:        year,
		Genre:       c.Query("genre"),
		Quality:     catalog.Quality(c.Query("quality")),
		IsDualAudio: dualAudio,
	}
}

// listRecords serves the public, published-only listing.
func (s *Server) listRecords(c *gin.Context) {
	criteria := criteriaFromQuery(c)
	page := parsePage(c)

	records, err := s.recordRepo.Query(criteria, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []*catalog.Record{}
	}

	info := catalog.NewPageInfo(page, len(records))
	if withTotal, _ := strconv.ParseBool(c.Query("with_total")); withTotal {
		total, err := s.recordRepo.Count(criteria)
		if err != nil {
			respondError(c, err)
			return
		}
		info.Total = &total
	}

	c.JSON(http.StatusOK, ListResponse{Records: records, Pagination: info})
}

func (s *Server) getRecord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rec, err := s.recordRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if rec == nil {
		errorResponse(c, http.StatusNotFound, "Record not found")
		return
	}

	// The read succeeds whether or not the counter write does.
	s.bumpViews(rec.ID)

	c.JSON(http.StatusOK, rec)
}

func (s *Server) getRecordBySlug(c *gin.Context) {
	rec, err := s.recordRepo.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	if rec == nil {
		errorResponse(c, http.StatusNotFound, "Record not found")
		return
	}

	s.bumpViews(rec.ID)

	c.JSON(http.StatusOK, rec)
}

// getRecordLinks serves the usable download link groups for a record,
// filtering out placeholder groups, and counts the selection.
func (s *Server) getRecordLinks(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rec, err := s.recordRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if rec == nil {
		errorResponse(c, http.StatusNotFound, "Record not found")
		return
	}

	if err := s.recordRepo.IncrementDownloads(rec.ID); err != nil {
		slog.Error("Failed to increment downloads", "record_id", rec.ID, "error", err)
		if s.metrics != nil {
			s.metrics.CounterIncrementFailures.Inc()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id":       rec.ID,
		"download_links":  rec.AvailableDownloadLinks(),
		"streaming_links": rec.StreamingLinks,
	})
}

func (s *Server) createRecord(c *gin.Context) {
	var in RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rec := in.toRecord()
	if err := s.recordRepo.Create(rec); err != nil {
		respondError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordsCreated.WithLabelValues("operator").Inc()
	}

	c.JSON(http.StatusCreated, rec)
}

func (s *Server) updateRecord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.recordRepo.Update(id, in.toRecord())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteRecord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.recordRepo.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bumpViews increments the view counter, swallowing failures: a read
// that counted wrong is still a successful read.
func (s *Server) bumpViews(id int64) {
	if err := s.recordRepo.IncrementViews(id); err != nil {
		slog.Error("Failed to increment views", "record_id", id, "error", err)
		if s.metrics != nil {
			s.metrics.CounterIncrementFailures.Inc()
		}
	}
}
