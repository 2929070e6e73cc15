package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// EpisodeRepository handles the episode sub-catalog owned by series records.
type EpisodeRepository struct {
	db *DB
}

// NewEpisodeRepository creates a new episode repository.
func NewEpisodeRepository(db *DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

const episodeColumns = `id, record_id, season_number, episode_number, title, description,
	duration, thumbnail, air_date, download_links, streaming_links, views, downloads, created_at`

func scanEpisode(s scanner) (*Episode, error) {
	ep := &Episode{}
	var description, thumbnail, airDate sql.NullString
	var downloadLinks, streamingLinks string

	err := s.Scan(
		&ep.ID, &ep.RecordID, &ep.SeasonNumber, &ep.EpisodeNumber, &ep.Title, &description,
		&ep.Duration, &thumbnail, &airDate, &downloadLinks, &streamingLinks,
		&ep.Views, &ep.Downloads, &ep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ep.Description = description.String
	ep.Thumbnail = thumbnail.String
	ep.AirDate = airDate.String
	if err := json.Unmarshal([]byte(downloadLinks), &ep.DownloadLinks); err != nil {
		return nil, fmt.Errorf("failed to decode episode links: %w", err)
	}
	if err := json.Unmarshal([]byte(streamingLinks), &ep.StreamingLinks); err != nil {
		return nil, fmt.Errorf("failed to decode episode links: %w", err)
	}

	return ep, nil
}

// ListByRecord returns the parent's episodes ordered by season then
// episode number.
func (r *EpisodeRepository) ListByRecord(recordID int64) ([]*Episode, error) {
	rows, err := r.db.Query(
		`SELECT `+episodeColumns+` FROM episodes
		 WHERE record_id = ?
		 ORDER BY season_number, episode_number`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, ep)
	}

	return episodes, rows.Err()
}

// Add appends an episode to a series record and recomputes the parent's
// total_episodes in the same transaction. The parent must exist and be a
// series; a duplicate episode number within the same season is rejected
// and leaves the episode set unchanged.
func (r *EpisodeRepository) Add(recordID int64, ep *Episode) error {
	if ep.SeasonNumber == 0 {
		ep.SeasonNumber = 1
	}
	if err := ValidateEpisode(ep); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isSeries bool
	err = tx.QueryRow(`SELECT is_series FROM catalog_records WHERE id = ?`, recordID).Scan(&isSeries)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check parent record: %w", err)
	}
	if !isSeries {
		return invalid("record", "not a series")
	}

	var existing int64
	err = tx.QueryRow(
		`SELECT id FROM episodes WHERE record_id = ? AND season_number = ? AND episode_number = ?`,
		recordID, ep.SeasonNumber, ep.EpisodeNumber,
	).Scan(&existing)
	if err == nil {
		return invalid("episode_number", fmt.Sprintf("episode %d already exists in season %d", ep.EpisodeNumber, ep.SeasonNumber))
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check episode: %w", err)
	}

	downloadLinks, err := encodeJSON(ep.DownloadLinks)
	if err != nil {
		return err
	}
	streamingLinks, err := encodeJSON(ep.StreamingLinks)
	if err != nil {
		return err
	}

	err = tx.QueryRow(
		`INSERT INTO episodes (record_id, season_number, episode_number, title, description,
			duration, thumbnail, air_date, download_links, streaming_links)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id, created_at`,
		recordID, ep.SeasonNumber, ep.EpisodeNumber, ep.Title, nullString(ep.Description),
		ep.Duration, nullString(ep.Thumbnail), nullString(ep.AirDate), downloadLinks, streamingLinks,
	).Scan(&ep.ID, &ep.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}

	// total_episodes is derived from the episode set, never set directly.
	_, err = tx.Exec(
		`UPDATE catalog_records
		 SET total_episodes = (SELECT COUNT(*) FROM episodes WHERE record_id = ?),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		recordID, recordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update episode count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit episode: %w", err)
	}
	ep.RecordID = recordID

	return nil
}
