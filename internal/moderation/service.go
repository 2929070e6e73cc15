package moderation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/reelgrid/reelgrid/internal/catalog"
)

// Action is an operator decision on a record awaiting review.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRecall  Action = "recall"
)

// Valid reports whether a is a known moderation action.
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionRecall:
		return true
	}
	return false
}

// Service drives the moderation state machine over the catalog store.
// Transitions apply to records in pending_review or published; draft
// records only leave draft through direct operator edits, so no
// transition exists for them here.
type Service struct {
	records *catalog.RecordRepository
	log     *slog.Logger
}

// NewService creates a moderation service.
func NewService(records *catalog.RecordRepository) *Service {
	return &Service{
		records: records,
		log:     slog.With("component", "moderation"),
	}
}

// Apply runs the named action against a record. Approve returns the
// published record; recall returns it back in pending_review; reject
// deletes the record permanently and returns nil.
func (s *Service) Apply(id int64, action Action) (*catalog.Record, error) {
	rec, err := s.records.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, catalog.ErrNotFound
	}
	if rec.Visibility == catalog.VisibilityDraft {
		return nil, &catalog.ValidationError{Field: "action", Reason: "record is a draft; edit it directly instead"}
	}

	switch action {
	case ActionApprove:
		now := time.Now().UTC()
		updated, err := s.records.SetVisibility(id, catalog.VisibilityPublished, &now)
		if err != nil {
			return nil, err
		}
		s.log.Info("Record approved", "record_id", id, "slug", rec.Slug)
		return updated, nil

	case ActionReject:
		// Reject deletes rather than archiving; no tombstone remains.
		if err := s.records.Delete(id); err != nil {
			return nil, err
		}
		s.log.Info("Record rejected and deleted", "record_id", id, "slug", rec.Slug)
		return nil, nil

	case ActionRecall:
		updated, err := s.records.SetVisibility(id, catalog.VisibilityPendingReview, nil)
		if err != nil {
			return nil, err
		}
		s.log.Info("Record recalled for re-review", "record_id", id, "slug", rec.Slug)
		return updated, nil

	default:
		return nil, &catalog.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", action)}
	}
}

// Queue returns a page of records awaiting review, newest first.
func (s *Service) Queue(page catalog.PageRequest) ([]*catalog.Record, error) {
	return s.records.Query(catalog.Criteria{ModerationQueue: true}, page)
}

// QueueCount returns the total size of the review queue, for dashboards
// that need page-count metadata.
func (s *Service) QueueCount() (int64, error) {
	return s.records.Count(catalog.Criteria{ModerationQueue: true})
}
