package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reelgrid/reelgrid/internal/catalog"
)

// ErrBatchFailed is returned when every item in a bulk batch failed.
// Individual failures inside a partially successful batch are reported
// through BulkResult.Failures instead.
var ErrBatchFailed = errors.New("all items in generation batch failed")

// DefaultMaxBatch bounds a single bulk request.
const DefaultMaxBatch = 50

// Service drives the synthesis capability to create draft catalog
// records. Every generated record enters the moderation queue as
// pending_review with the AI flag set.
type Service struct {
	records  *catalog.RecordRepository
	synth    Synthesizer
	maxBatch int
	log      *slog.Logger
}

// NewService creates a generation service. maxBatch <= 0 falls back to
// DefaultMaxBatch.
func NewService(records *catalog.RecordRepository, synth Synthesizer, maxBatch int) *Service {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Service{
		records:  records,
		synth:    synth,
		maxBatch: maxBatch,
		log:      slog.With("component", "generate"),
	}
}

// BulkInput describes a bulk generation request.
type BulkInput struct {
	Count          int
	Category       catalog.Category
	Year           int
	SourcePlatform string
}

// BulkResult reports what a batch produced. A batch succeeds as long as
// at least one item was persisted.
type BulkResult struct {
	BatchID  string
	Created  []*catalog.Record
	Failures int
}

// Bulk creates up to input.Count draft records. Each item is its own
// unit of work: a synthesis or persistence failure is recorded and the
// loop moves on, never rolling back earlier items.
func (s *Service) Bulk(ctx context.Context, input BulkInput) (*BulkResult, error) {
	if input.Count < 1 || input.Count > s.maxBatch {
		return nil, &catalog.ValidationError{
			Field:  "count",
			Reason: fmt.Sprintf("must be between 1 and %d", s.maxBatch),
		}
	}
	if !input.Category.Valid() {
		return nil, &catalog.ValidationError{Field: "category", Reason: "unknown category " + string(input.Category)}
	}
	if input.Year <= 0 {
		return nil, &catalog.ValidationError{Field: "year", Reason: "required"}
	}

	result := &BulkResult{BatchID: uuid.NewString()}
	for i := 1; i <= input.Count; i++ {
		rec, err := s.generateOne(ctx, Hint{
			Category:       input.Category,
			Year:           input.Year,
			SourcePlatform: input.SourcePlatform,
			Seed:           SeedFor(input.Category, input.Year, i),
		})
		if err != nil {
			result.Failures++
			s.log.Warn("Generation item failed",
				"batch_id", result.BatchID,
				"item", i,
				"error", err,
			)
			continue
		}
		result.Created = append(result.Created, rec)
	}

	s.log.Info("Generation batch finished",
		"batch_id", result.BatchID,
		"requested", input.Count,
		"created", len(result.Created),
		"failed", result.Failures,
	)

	if len(result.Created) == 0 && result.Failures > 0 {
		return result, ErrBatchFailed
	}
	return result, nil
}

// SingleInput describes the single-title convenience path.
type SingleInput struct {
	Title          string
	Category       catalog.Category
	Year           int
	SourcePlatform string
}

// Single generates and persists one draft record for an explicit title.
func (s *Service) Single(ctx context.Context, input SingleInput) (*catalog.Record, error) {
	if input.Title == "" {
		return nil, &catalog.ValidationError{Field: "title", Reason: "required"}
	}
	if !input.Category.Valid() {
		return nil, &catalog.ValidationError{Field: "category", Reason: "unknown category " + string(input.Category)}
	}
	if input.Year <= 0 {
		return nil, &catalog.ValidationError{Field: "year", Reason: "required"}
	}

	return s.generateOne(ctx, Hint{
		Title:          input.Title,
		Category:       input.Category,
		Year:           input.Year,
		SourcePlatform: input.SourcePlatform,
		Seed:           SeedFor(input.Category, input.Year, 0),
	})
}

// generateOne runs the synthesis capability and persists the draft with
// the moderation attributes the generator always applies.
func (s *Service) generateOne(ctx context.Context, hint Hint) (*catalog.Record, error) {
	rec, err := s.synth.Generate(ctx, hint)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	rec.IsAIGenerated = true
	rec.Visibility = catalog.VisibilityPendingReview
	rec.ApprovedAt = nil

	if err := s.records.Create(rec); err != nil {
		return nil, fmt.Errorf("failed to persist generated record: %w", err)
	}
	return rec, nil
}
