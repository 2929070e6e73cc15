package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelgrid/reelgrid/internal/catalog"
)

// EpisodeInput carries the fields of a new episode.
type EpisodeInput struct {
	SeasonNumber   int                       `json:"season_number"`
	EpisodeNumber  int                       `json:"episode_number"`
	Title          string                    `json:"title"`
	Description    string                    `json:"description"`
	Duration       int                       `json:"duration"`
	Thumbnail      string                    `json:"thumbnail"`
	AirDate        string                    `json:"air_date"`
	DownloadLinks  []catalog.DownloadLinkSet `json:"download_links"`
	StreamingLinks []catalog.StreamingLink   `json:"streaming_links"`
}

func (s *Server) listEpisodes(c *gin.Context) {
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

	episodes, err := s.episodeRepo.ListByRecord(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if episodes == nil {
		episodes = []*catalog.Episode{}
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id":      rec.ID,
		"total_episodes": rec.TotalEpisodes,
		"episodes":       episodes,
	})
}

func (s *Server) addEpisode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in EpisodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ep := &catalog.Episode{
		SeasonNumber:   in.SeasonNumber,
		EpisodeNumber:  in.EpisodeNumber,
		Title:          in.Title,
		Description:    in.Description,
		Duration:       in.Duration,
		Thumbnail:      in.Thumbnail,
		AirDate:        in.AirDate,
		DownloadLinks:  in.DownloadLinks,
		StreamingLinks: in.StreamingLinks,
	}

	if err := s.episodeRepo.Add(id, ep); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ep)
}
