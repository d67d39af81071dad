// Package rating computes the per-item rating aggregate and plans the
// writes for a rating submission or deletion. It performs no I/O; the
// repository applies a Plan inside the transaction that read the input.
package rating

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

// Submission is a user's rating and comment for one item.
type Submission struct {
	UserID  string
	Email   string
	Comment string
	Rating  int
}

// Plan is the write-set for one change to an item's comments.
type Plan struct {
	// Changed is false when nothing needs to be written.
	Changed bool
	// Upsert is the record to create or update, if any.
	Upsert *domain.Comment
	// Created reports whether Upsert is a new record.
	Created bool
	// DeleteID is the record to remove, if any.
	DeleteID string
	// Summary is the aggregate after the write.
	Summary domain.RatingSummary
	// Comments lists every record after the write, caller first.
	Comments []domain.Comment
}

// Summarize returns the mean and count of all nonzero ratings.
func Summarize(comments []domain.Comment) domain.RatingSummary {
	sum, n := 0, 0
	for i := range comments {
		if comments[i].Rating > 0 {
			sum += comments[i].Rating
			n++
		}
	}
	if n == 0 {
		return domain.RatingSummary{}
	}
	return domain.RatingSummary{
		AverageRating: float64(sum) / float64(n),
		RatingsCount:  n,
	}
}

// ValidateRating rejects ratings outside [0, MaxRating].
func ValidateRating(r int) error {
	if r < 0 || r > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between 0 and %d", domain.MaxRating))
	}
	return nil
}

// PlanSubmit plans the upsert of sub into existing, the current records of
// ref in storage order. An empty comment with rating 0 changes nothing.
func PlanSubmit(existing []domain.Comment, ref domain.ItemRef, sub Submission, now time.Time) (Plan, error) {
	if err := ValidateRating(sub.Rating); err != nil {
		return Plan{}, err
	}
	if sub.Comment == "" && sub.Rating == 0 {
		return Plan{
			Summary:  Summarize(existing),
			Comments: OwnFirst(existing, sub.UserID),
		}, nil
	}

	var record domain.Comment
	created := true
	after := make([]domain.Comment, 0, len(existing)+1)
	for _, c := range existing {
		if c.UserID == sub.UserID && created {
			record = c
			created = false
			continue
		}
		after = append(after, c)
	}

	if created {
		record = domain.Comment{
			ID:        uuid.NewString(),
			Kind:      ref.Kind,
			ItemID:    ref.ID,
			UserID:    sub.UserID,
			CreatedAt: now,
		}
	}
	record.Email = sub.Email
	record.Comment = sub.Comment
	record.Rating = sub.Rating
	record.UpdatedAt = now

	after = append([]domain.Comment{record}, after...)
	upsert := record
	return Plan{
		Changed:  true,
		Upsert:   &upsert,
		Created:  created,
		Summary:  Summarize(after),
		Comments: after,
	}, nil
}

// PlanDelete plans the removal of userID's record. When the user has no
// record the plan is unchanged but still carries the recomputed summary.
func PlanDelete(existing []domain.Comment, userID string) Plan {
	plan := Plan{}
	remaining := make([]domain.Comment, 0, len(existing))
	for _, c := range existing {
		if c.UserID == userID && plan.DeleteID == "" {
			plan.DeleteID = c.ID
			plan.Changed = true
			continue
		}
		remaining = append(remaining, c)
	}
	plan.Summary = Summarize(remaining)
	plan.Comments = remaining
	return plan
}

// OwnFirst returns a copy of comments with userID's record moved to the
// front. Other records keep their relative order.
func OwnFirst(comments []domain.Comment, userID string) []domain.Comment {
	out := make([]domain.Comment, 0, len(comments))
	if userID != "" {
		for _, c := range comments {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
	}
	for _, c := range comments {
		if userID == "" || c.UserID != userID {
			out = append(out, c)
		}
	}
	return out
}
