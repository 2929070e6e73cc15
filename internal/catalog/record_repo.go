package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RecordRepository handles catalog record database operations.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `id, slug, title, description, year, category, genres, languages,
	is_dual_audio, director, cast_list, tags, images, download_links, streaming_links,
	is_series, total_episodes, visibility, is_ai_generated, approved_at,
	views, downloads, created_at, updated_at`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record, decoding the JSON columns.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var director sql.NullString
	var approvedAt sql.NullTime
	var genres, languages, castList, tags, images, downloadLinks, streamingLinks string

	err := s.Scan(
		&rec.ID, &rec.Slug, &rec.Title, &rec.Description, &rec.Year, &rec.Category,
		&genres, &languages, &rec.IsDualAudio, &director, &castList, &tags,
		&images, &downloadLinks, &streamingLinks,
		&rec.IsSeries, &rec.TotalEpisodes, &rec.Visibility, &rec.IsAIGenerated, &approvedAt,
		&rec.Views, &rec.Downloads, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Director = director.String
	if approvedAt.Valid {
		t := approvedAt.Time
		rec.ApprovedAt = &t
	}

	for _, col := range []struct {
		raw  string
		dest interface{}
	}{
		{genres, &rec.Genres},
		{languages, &rec.Languages},
		{castList, &rec.Cast},
		{tags, &rec.Tags},
		{images, &rec.Images},
		{downloadLinks, &rec.DownloadLinks},
		{streamingLinks, &rec.StreamingLinks},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode record column: %w", err)
		}
	}

	return rec, nil
}

// Create validates and inserts a new record, deriving its slug from the
// title. Missing required attributes fail validation; a title that
// normalizes to an existing slug fails with ErrSlugConflict.
func (r *RecordRepository) Create(rec *Record) error {
	if rec.Visibility == "" {
		rec.Visibility = VisibilityDraft
	}
	if err := Validate(rec); err != nil {
		return err
	}

	slug := Slugify(rec.Title)
	taken, err := r.slugTaken(slug, 0)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrSlugConflict, slug)
	}

	cols, err := encodeJSONColumns(rec)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(
		`INSERT INTO catalog_records (slug, title, description, year, category, genres, languages,
			is_dual_audio, director, cast_list, tags, images, download_links, streaming_links,
			is_series, visibility, is_ai_generated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id, created_at, updated_at`,
		slug, rec.Title, rec.Description, rec.Year, string(rec.Category), cols.genres, cols.languages,
		rec.IsDualAudio, nullString(rec.Director), cols.castList, cols.tags,
		cols.images, cols.downloadLinks, cols.streamingLinks,
		rec.IsSeries, string(rec.Visibility), rec.IsAIGenerated,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		// A concurrent create can win the slug between the pre-check
		// and the insert; the constraint violation is still a conflict.
		if isSlugConstraintErr(err) {
			return fmt.Errorf("%w: %s", ErrSlugConflict, slug)
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	rec.Slug = slug

	return nil
}

// GetByID retrieves a record by its ID. Returns (nil, nil) when absent.
func (r *RecordRepository) GetByID(id int64) (*Record, error) {
	row := r.db.QueryRow(
		`SELECT `+recordColumns+` FROM catalog_records WHERE id = ?`, id,
	)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return rec, nil
}

// GetBySlug retrieves a record by its slug. Returns (nil, nil) when absent.
func (r *RecordRepository) GetBySlug(slug string) (*Record, error) {
	row := r.db.QueryRow(
		`SELECT `+recordColumns+` FROM catalog_records WHERE slug = ?`, slug,
	)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record by slug: %w", err)
	}

	return rec, nil
}

// Update replaces the mutable fields of a record and refreshes
// updated_at. The slug is re-derived when the title changed; counters,
// created_at and the AI-generated flag are not touched.
func (r *RecordRepository) Update(id int64, rec *Record) (*Record, error) {
	existing, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	if rec.Visibility == "" {
		rec.Visibility = existing.Visibility
	}
	if err := Validate(rec); err != nil {
		return nil, err
	}

	slug := existing.Slug
	if rec.Title != existing.Title {
		slug = Slugify(rec.Title)
		taken, err := r.slugTaken(slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", ErrSlugConflict, slug)
		}
	}

	cols, err := encodeJSONColumns(rec)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(
		`UPDATE catalog_records SET slug = ?, title = ?, description = ?, year = ?, category = ?,
			genres = ?, languages = ?, is_dual_audio = ?, director = ?, cast_list = ?, tags = ?,
			images = ?, download_links = ?, streaming_links = ?, is_series = ?, visibility = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		slug, rec.Title, rec.Description, rec.Year, string(rec.Category),
		cols.genres, cols.languages, rec.IsDualAudio, nullString(rec.Director), cols.castList, cols.tags,
		cols.images, cols.downloadLinks, cols.streamingLinks, rec.IsSeries, string(rec.Visibility),
		id,
	)
	if err != nil {
		if isSlugConstraintErr(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugConflict, slug)
		}
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	return r.GetByID(id)
}

// Delete removes a record; episodes cascade with it.
func (r *RecordRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM catalog_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Query runs the compiled criteria against the store with the page's
// offset/limit directives.
func (r *RecordRepository) Query(c Criteria, page PageRequest) ([]*Record, error) {
	where, args := c.Compile()
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.Query(
		`SELECT `+recordColumns+` FROM catalog_records
		 WHERE `+where+`
		 ORDER BY `+c.OrderBy()+`
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Count returns the number of records matching the criteria.
func (r *RecordRepository) Count(c Criteria) (int64, error) {
	where, args := c.Compile()

	var count int64
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM catalog_records WHERE `+where, args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}

// SetVisibility moves a record to a new moderation state. approvedAt is
// written as given, nil clearing any previous approval timestamp.
func (r *RecordRepository) SetVisibility(id int64, v Visibility, approvedAt *time.Time) (*Record, error) {
	var ts sql.NullTime
	if approvedAt != nil {
		ts = sql.NullTime{Time: *approvedAt, Valid: true}
	}

	result, err := r.db.Exec(
		`UPDATE catalog_records SET visibility = ?, approved_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(v), ts, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set visibility: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check visibility result: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(id)
}

// IncrementViews bumps the view counter. Callers on the read path treat
// a failure here as log-only; the read itself still succeeds.
func (r *RecordRepository) IncrementViews(id int64) error {
	_, err := r.db.Exec(`UPDATE catalog_records SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter. Same contract as
// IncrementViews: never surfaced as a read failure.
func (r *RecordRepository) IncrementDownloads(id int64) error {
	_, err := r.db.Exec(`UPDATE catalog_records SET downloads = downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	return nil
}

// isSlugConstraintErr reports whether err is the UNIQUE violation on
// catalog_records.slug.
func isSlugConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: catalog_records.slug")
}

func (r *RecordRepository) slugTaken(slug string, excludeID int64) (bool, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT id FROM catalog_records WHERE slug = ? AND id != ?`, slug, excludeID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return true, nil
}

// jsonColumns holds the encoded JSON text for a record's collection columns.
type jsonColumns struct {
	genres, languages, castList, tags, images, downloadLinks, streamingLinks string
}

func encodeJSONColumns(rec *Record) (jsonColumns, error) {
	var cols jsonColumns
	for _, col := range []struct {
		src  interface{}
		dest *string
	}{
		{rec.Genres, &cols.genres},
		{rec.Languages, &cols.languages},
		{rec.Cast, &cols.castList},
		{rec.Tags, &cols.tags},
		{rec.Images, &cols.images},
		{rec.DownloadLinks, &cols.downloadLinks},
		{rec.StreamingLinks, &cols.streamingLinks},
	} {
		s, err := encodeJSON(col.src)
		if err != nil {
			return cols, err
		}
		*col.dest = s
	}
	return cols, nil
}

// encodeJSON marshals a collection, mapping nil slices to empty arrays so
// the JSON1 queries always see valid arrays.
func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode record column: %w", err)
	}
	s := string(b)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}

// Helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
