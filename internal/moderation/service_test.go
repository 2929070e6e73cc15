package moderation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgrid/reelgrid/internal/catalog"
)

func newTestService(t *testing.T) (*Service, *catalog.RecordRepository) {
	t.Helper()
	db, err := catalog.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	records := catalog.NewRecordRepository(db)
	return NewService(records), records
}

func submitRecord(t *testing.T, records *catalog.RecordRepository, title string) *catalog.Record {
	t.Helper()
	rec := &catalog.Record{
		Title:       title,
		Description: "description for " + title,
		Year:        2023,
		Category:    catalog.CategoryHollywood,
		Genres:      []string{"Drama"},
		Languages:   []string{"English"},
		Images: []catalog.Image{
			{Role: catalog.ImagePoster, URL: "https://example.com/poster.jpg"},
		},
		Visibility: catalog.VisibilityPendingReview,
	}
	require.NoError(t, records.Create(rec))
	return rec
}

func TestActionValid(t *testing.T) {
	for _, a := range []Action{ActionApprove, ActionReject, ActionRecall} {
		assert.True(t, a.Valid(), "action %q", a)
	}
	assert.False(t, Action("archive").Valid())
	assert.False(t, Action("").Valid())
}

func TestApplyApprove(t *testing.T) {
	svc, records := newTestService(t)
	rec := submitRecord(t, records, "Awaiting Review")

	updated, err := svc.Apply(rec.ID, ActionApprove)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, catalog.VisibilityPublished, updated.Visibility)
	assert.NotNil(t, updated.ApprovedAt, "approval stamps the record")
}

func TestApplyReject(t *testing.T) {
	svc, records := newTestService(t)
	rec := submitRecord(t, records, "Bad Submission")

	updated, err := svc.Apply(rec.ID, ActionReject)
	require.NoError(t, err)
	assert.Nil(t, updated, "reject leaves nothing behind")

	got, err := records.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "rejected record is gone, not archived")
}

func TestApplyRecall(t *testing.T) {
	svc, records := newTestService(t)
	rec := submitRecord(t, records, "Published Then Recalled")

	published, err := svc.Apply(rec.ID, ActionApprove)
	require.NoError(t, err)
	require.NotNil(t, published.ApprovedAt)

	recalled, err := svc.Apply(rec.ID, ActionRecall)
	require.NoError(t, err)
	assert.Equal(t, catalog.VisibilityPendingReview, recalled.Visibility)
	assert.Nil(t, recalled.ApprovedAt, "recall clears the approval timestamp")
}

func TestApplyDraftRejected(t *testing.T) {
	svc, records := newTestService(t)

	draft := &catalog.Record{
		Title:       "Still A Draft",
		Description: "not submitted yet",
		Year:        2023,
		Category:    catalog.CategoryHollywood,
		Genres:      []string{"Drama"},
		Languages:   []string{"English"},
		Images: []catalog.Image{
			{Role: catalog.ImagePoster, URL: "https://example.com/poster.jpg"},
		},
	}
	require.NoError(t, records.Create(draft))

	for _, action := range []Action{ActionApprove, ActionReject, ActionRecall} {
		_, err := svc.Apply(draft.ID, action)
		var vErr *catalog.ValidationError
		require.ErrorAs(t, err, &vErr, "action %q on a draft", action)
	}

	got, err := records.GetByID(draft.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, catalog.VisibilityDraft, got.Visibility)
}

func TestApplyUnknownRecord(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Apply(999, ActionApprove)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestApplyUnknownAction(t *testing.T) {
	svc, records := newTestService(t)
	rec := submitRecord(t, records, "Some Submission")

	_, err := svc.Apply(rec.ID, Action("archive"))
	var vErr *catalog.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "action", vErr.Field)
}

func TestQueue(t *testing.T) {
	svc, records := newTestService(t)

	first := submitRecord(t, records, "Queued First")
	second := submitRecord(t, records, "Queued Second")

	// Published records never show up in the queue.
	_, err := svc.Apply(first.ID, ActionApprove)
	require.NoError(t, err)

	queued, err := svc.Queue(catalog.PageRequest{Page: 1, Limit: 10}.Normalize())
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, second.ID, queued[0].ID)

	count, err := svc.QueueCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
