package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgrid/reelgrid/internal/auth"
	"github.com/reelgrid/reelgrid/internal/catalog"
	"github.com/reelgrid/reelgrid/internal/generate"
	"github.com/reelgrid/reelgrid/internal/metrics"
	"github.com/reelgrid/reelgrid/internal/moderation"
)

type testEnv struct {
	server  *Server
	token   string
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := catalog.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recordRepo := catalog.NewRecordRepository(db)
	episodeRepo := catalog.NewEpisodeRepository(db)
	jwt := auth.JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}
	m := metrics.New(prometheus.NewRegistry())

	server := NewServer(
		recordRepo,
		episodeRepo,
		moderation.NewService(recordRepo),
		generate.NewService(recordRepo, generate.NewTemplateSynthesizer(), 10),
		jwt,
		nil,
		m,
	)

	token, _, err := jwt.Sign(auth.Claims{Role: auth.RoleOperator})
	require.NoError(t, err)

	return &testEnv{server: server, token: token, metrics: m}
}

// do issues a request against the server, as an operator when asOperator
// is set, and decodes the JSON response body into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, asOperator bool, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if asOperator {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func recordBody(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "description for " + title,
		"year":        2023,
		"category":    "Hollywood",
		"genres":      []string{"Action"},
		"languages":   []string{"English"},
		"images": []map[string]any{
			{"role": "poster", "url": "https://example.com/poster.jpg"},
		},
	}
}

func TestOperatorGate(t *testing.T) {
	env := newTestEnv(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/records"},
		{http.MethodPut, "/api/records/1"},
		{http.MethodDelete, "/api/records/1"},
		{http.MethodPost, "/api/records/1/episodes"},
		{http.MethodGet, "/api/moderation/queue"},
		{http.MethodPost, "/api/moderation/1"},
		{http.MethodPost, "/api/generate"},
	}

	for _, route := range protected {
		w := env.do(t, route.method, route.path, nil, false, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestRecordLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Create a draft.
	var created catalog.Record
	w := env.do(t, http.MethodPost, "/api/records", recordBody("Lifecycle Movie"), true, &created)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "lifecycle-movie", created.Slug)
	assert.Equal(t, catalog.VisibilityDraft, created.Visibility)

	// Drafts are invisible to the public listing.
	var listing ListResponse
	w = env.do(t, http.MethodGet, "/api/records", nil, false, &listing)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listing.Records)

	// Submit for review via an update, then approve.
	body := recordBody("Lifecycle Movie")
	body["visibility"] = "pending_review"
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/records/%d", created.ID), body, true, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var queue ListResponse
	w = env.do(t, http.MethodGet, "/api/moderation/queue", nil, true, &queue)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, queue.Records, 1)

	var published catalog.Record
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/moderation/%d", created.ID),
		map[string]any{"action": "approve"}, true, &published)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.VisibilityPublished, published.Visibility)
	assert.NotNil(t, published.ApprovedAt)

	// Now it is publicly listed and fetchable, by id and by slug.
	w = env.do(t, http.MethodGet, "/api/records", nil, false, &listing)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, listing.Records, 1)

	var fetched catalog.Record
	w = env.do(t, http.MethodGet, "/api/records/slug/lifecycle-movie", nil, false, &fetched)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, fetched.ID)

	// Reads count views.
	env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d", created.ID), nil, false, nil)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d", created.ID), nil, false, &fetched)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, fetched.Views, int64(2))

	// Delete and verify.
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/records/%d", created.ID), nil, true, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d", created.ID), nil, false, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRecordErrors(t *testing.T) {
	env := newTestEnv(t)

	// Validation failure surfaces as 400.
	bad := recordBody("Bad Record")
	delete(bad, "genres")
	w := env.do(t, http.MethodPost, "/api/records", bad, true, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A colliding slug surfaces as 409.
	w = env.do(t, http.MethodPost, "/api/records", recordBody("Unique Title"), true, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/records", recordBody("UNIQUE title!"), true, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetRecordBadRequests(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/records/abc", nil, false, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/records/999", nil, false, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/records/slug/nope", nil, false, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecordsWithTotal(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		var created catalog.Record
		w := env.do(t, http.MethodPost, "/api/records", recordBody(fmt.Sprintf("Listed %d", i)), true, &created)
		require.Equal(t, http.StatusCreated, w.Code)
		w = env.do(t, http.MethodPost, fmt.Sprintf("/api/moderation/%d", created.ID),
			map[string]any{"action": "recall"}, true, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, "drafts cannot be moderated")

		body := recordBody(fmt.Sprintf("Listed %d", i))
		body["visibility"] = "pending_review"
		w = env.do(t, http.MethodPut, fmt.Sprintf("/api/records/%d", created.ID), body, true, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = env.do(t, http.MethodPost, fmt.Sprintf("/api/moderation/%d", created.ID),
			map[string]any{"action": "approve"}, true, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var listing ListResponse
	w := env.do(t, http.MethodGet, "/api/records?limit=2&with_total=true", nil, false, &listing)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listing.Records, 2)
	assert.True(t, listing.Pagination.HasMore)
	require.NotNil(t, listing.Pagination.Total)
	assert.EqualValues(t, 3, *listing.Pagination.Total)

	listing = ListResponse{}
	w = env.do(t, http.MethodGet, "/api/records?limit=2&page=2", nil, false, &listing)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listing.Records, 1)
	assert.False(t, listing.Pagination.HasMore)
	assert.Nil(t, listing.Pagination.Total, "total only on request")
}

func TestModerationReject(t *testing.T) {
	env := newTestEnv(t)

	var created catalog.Record
	w := env.do(t, http.MethodPost, "/api/records", recordBody("To Be Rejected"), true, &created)
	require.Equal(t, http.StatusCreated, w.Code)

	body := recordBody("To Be Rejected")
	body["visibility"] = "pending_review"
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/records/%d", created.ID), body, true, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/moderation/%d", created.ID),
		map[string]any{"action": "reject"}, true, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d", created.ID), nil, false, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationBadAction(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/moderation/1",
		map[string]any{"action": "archive"}, true, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/moderation/999",
		map[string]any{"action": "approve"}, true, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEpisodeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	seriesBody := recordBody("Test Series")
	seriesBody["is_series"] = true
	var series catalog.Record
	w := env.do(t, http.MethodPost, "/api/records", seriesBody, true, &series)
	require.Equal(t, http.StatusCreated, w.Code)

	episode := map[string]any{
		"season_number":  1,
		"episode_number": 1,
		"title":          "Pilot",
	}
	var created catalog.Episode
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/episodes", series.ID), episode, true, &created)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, series.ID, created.RecordID)

	// Duplicate within the same season is a client error.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/episodes", series.ID), episode, true, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var out struct {
		RecordID      int64              `json:"record_id"`
		TotalEpisodes int                `json:"total_episodes"`
		Episodes      []*catalog.Episode `json:"episodes"`
	}
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d/episodes", series.ID), nil, false, &out)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, out.TotalEpisodes)
	require.Len(t, out.Episodes, 1)
	assert.Equal(t, "Pilot", out.Episodes[0].Title)
}

func TestRecordLinks(t *testing.T) {
	env := newTestEnv(t)

	body := recordBody("Linked Movie")
	body["download_links"] = []map[string]any{
		{
			"quality": "1080p",
			"servers": []map[string]any{
				{"url": "https://dl/1080", "server": "Server 1", "kind": "direct"},
			},
		},
		{
			// Placeholder group with no usable mirror.
			"quality": "4K",
			"servers": []map[string]any{{"server": "Server 1", "kind": "direct"}},
		},
	}

	var created catalog.Record
	w := env.do(t, http.MethodPost, "/api/records", body, true, &created)
	require.Equal(t, http.StatusCreated, w.Code)

	var out struct {
		RecordID      int64                     `json:"record_id"`
		DownloadLinks []catalog.DownloadLinkSet `json:"download_links"`
	}
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d/links", created.ID), nil, false, &out)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out.DownloadLinks, 1, "placeholder groups are filtered out")
	assert.Equal(t, catalog.Quality1080p, out.DownloadLinks[0].Quality)

	// Serving links counts a download.
	var fetched catalog.Record
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/records/%d", created.ID), nil, false, &fetched)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, fetched.Downloads)
}

func TestGenerateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var result GenerateResponse
	w := env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"count": 3, "category": "Anime", "year": 2024}, true, &result)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, result.BatchID)
	assert.Len(t, result.Created, 3)
	assert.Zero(t, result.Failures)

	// Generated drafts land in the moderation queue, not the public list.
	var queue ListResponse
	w = env.do(t, http.MethodGet, "/api/moderation/queue?with_total=true", nil, true, &queue)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, queue.Pagination.Total)
	assert.EqualValues(t, 3, *queue.Pagination.Total)
	for _, rec := range queue.Records {
		assert.True(t, rec.IsAIGenerated)
	}

	var listing ListResponse
	w = env.do(t, http.MethodGet, "/api/records", nil, false, &listing)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listing.Records)

	// Bad bulk input is a client error.
	w = env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"count": 0, "category": "Anime", "year": 2024}, true, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Single-title path.
	var single catalog.Record
	w = env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"title": "Named Draft", "category": "Korean", "year": 2022}, true, &single)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Named Draft", single.Title)
	assert.Equal(t, catalog.VisibilityPendingReview, single.Visibility)
}

func TestGenerateFailureMetrics(t *testing.T) {
	env := newTestEnv(t)
	failed := env.metrics.GenerationItems.WithLabelValues("failed")

	// Rejected input is the caller's error, not a failed generation item.
	w := env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"title": "Bad Input", "category": "Nollywood", "year": 2024}, true, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, testutil.ToFloat64(failed))

	w = env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"count": 0, "category": "Anime", "year": 2024}, true, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, testutil.ToFloat64(failed))

	// A persist failure past validation is counted.
	w = env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"title": "Twice Named", "category": "Korean", "year": 2022}, true, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/generate",
		map[string]any{"title": "Twice Named", "category": "Korean", "year": 2022}, true, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.GenerationItems.WithLabelValues("created")))
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/status", nil, false, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
