package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	"github.com/Penlika/CoffeeShopApp/internal/rating"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
)

// RatingResult is the state of an item's comments after an operation.
type RatingResult struct {
	Summary  domain.RatingSummary `json:"summary"`
	Comments []domain.Comment     `json:"comments"`
	Changed  bool                 `json:"changed"`
}

// RatingService records per-user ratings and comments and keeps the item
// aggregate consistent with them.
type RatingService struct {
	items    repository.ItemRepository
	comments repository.CommentRepository
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewRatingService creates a new rating service.
func NewRatingService(
	items repository.ItemRepository,
	comments repository.CommentRepository,
	events EventPublisher,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		items:    items,
		comments: comments,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitRating creates or replaces the caller's comment on an item. A blank
// comment with rating 0 leaves everything as it is.
func (s *RatingService) SubmitRating(ctx context.Context, sess domain.Session, ref domain.ItemRef, comment string, value int) (*RatingResult, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	if err := rating.ValidateRating(value); err != nil {
		return nil, err
	}

	sub := rating.Submission{
		UserID:  sess.UserID,
		Email:   sess.Email,
		Comment: strings.TrimSpace(comment),
		Rating:  value,
	}
	now := s.now()

	plan, err := s.comments.ApplyRatingChange(ctx, ref, func(existing []domain.Comment) (rating.Plan, error) {
		return rating.PlanSubmit(existing, ref, sub, now)
	})
	if err != nil {
		return nil, storeError("apply rating", "item", ref.String(), err)
	}

	if plan.Changed {
		op := "update"
		if plan.Created {
			op = "create"
		}
		ratingChanges.WithLabelValues(op).Inc()
		s.logger.InfoContext(ctx, "rating submitted",
			slog.String("item", ref.String()),
			slog.String("user_id", sess.UserID),
			slog.Int("rating", value),
			slog.String("op", op),
			slog.Float64("average_rating", plan.Summary.AverageRating),
			slog.Int("ratings_count", plan.Summary.RatingsCount),
		)
		s.publish(ctx, ref, sess.UserID, plan.Summary, false)
	}

	return &RatingResult{
		Summary:  plan.Summary,
		Comments: plan.Comments,
		Changed:  plan.Changed,
	}, nil
}

// DeleteRating removes the caller's comment on an item. Deleting a comment
// that does not exist is not an error.
func (s *RatingService) DeleteRating(ctx context.Context, sess domain.Session, ref domain.ItemRef) (*RatingResult, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	plan, err := s.comments.ApplyRatingChange(ctx, ref, func(existing []domain.Comment) (rating.Plan, error) {
		return rating.PlanDelete(existing, sess.UserID), nil
	})
	if err != nil {
		return nil, storeError("delete rating", "item", ref.String(), err)
	}

	if plan.Changed {
		ratingChanges.WithLabelValues("delete").Inc()
		s.logger.InfoContext(ctx, "rating deleted",
			slog.String("item", ref.String()),
			slog.String("user_id", sess.UserID),
			slog.String("comment_id", plan.DeleteID),
		)
		s.publish(ctx, ref, sess.UserID, plan.Summary, true)
	}

	return &RatingResult{
		Summary:  plan.Summary,
		Comments: plan.Comments,
		Changed:  plan.Changed,
	}, nil
}

// ListComments returns the stored aggregate and the item's comments with
// the caller's own comment first. sess may be anonymous.
func (s *RatingService) ListComments(ctx context.Context, sess domain.Session, ref domain.ItemRef) (*RatingResult, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	item, err := s.items.Get(ctx, ref)
	if err != nil {
		return nil, storeError("get item", "item", ref.String(), err)
	}
	comments, err := s.comments.List(ctx, ref)
	if err != nil {
		return nil, storeError("list comments", "item", ref.String(), err)
	}

	return &RatingResult{
		Summary: domain.RatingSummary{
			AverageRating: item.AverageRating,
			RatingsCount:  item.RatingsCount,
		},
		Comments: rating.OwnFirst(comments, sess.UserID),
	}, nil
}

func (s *RatingService) publish(ctx context.Context, ref domain.ItemRef, userID string, summary domain.RatingSummary, deleted bool) {
	err := s.events.PublishRatingUpdated(ctx, event.RatingUpdatedData{
		Kind:          ref.Kind,
		ItemID:        ref.ID,
		UserID:        userID,
		AverageRating: summary.AverageRating,
		RatingsCount:  summary.RatingsCount,
		Deleted:       deleted,
	})
	if err != nil {
		eventPublishFailures.WithLabelValues(event.TypeRatingUpdated).Inc()
		s.logger.ErrorContext(ctx, "failed to publish rating updated event",
			slog.String("item", ref.String()),
			slog.String("error", err.Error()),
		)
	}
}
