package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/rating"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

const listCommentsQuery = `
		SELECT id, kind, item_id, user_id, email, comment, rating, created_at, updated_at
		FROM comments
		WHERE kind = $1 AND item_id = $2
		ORDER BY created_at, id`

// CommentRepository implements repository.CommentRepository using PostgreSQL.
type CommentRepository struct {
	pool database.DBTX
}

// NewCommentRepository creates a new PostgreSQL-backed comment repository.
func NewCommentRepository(pool database.DBTX) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// List returns the item's comments oldest first.
func (r *CommentRepository) List(ctx context.Context, ref domain.ItemRef) ([]domain.Comment, error) {
	return listComments(ctx, r.pool, ref)
}

// ApplyRatingChange serializes rating changes per item: the item row is
// locked before its comments are read, so concurrent submissions see each
// other's writes.
func (r *CommentRepository) ApplyRatingChange(ctx context.Context, ref domain.ItemRef, plan repository.PlanFunc) (_ rating.Plan, err error) {
	ctx, end := database.TraceQuery(ctx, "ApplyRatingChange", "SELECT ... FROM items FOR UPDATE")
	defer func() { end(err) }()

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) (rating.Plan, error) {
		var locked string
		err := tx.QueryRow(ctx,
			`SELECT id FROM items WHERE kind = $1 AND id = $2 FOR UPDATE`,
			ref.Kind, ref.ID,
		).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return rating.Plan{}, apperrors.ErrNotFound
			}
			return rating.Plan{}, fmt.Errorf("lock item: %w", err)
		}

		existing, err := listComments(ctx, tx, ref)
		if err != nil {
			return rating.Plan{}, err
		}

		p, err := plan(existing)
		if err != nil {
			return rating.Plan{}, err
		}
		if !p.Changed {
			return p, nil
		}

		if p.Upsert != nil {
			if err := upsertComment(ctx, tx, p.Upsert); err != nil {
				return rating.Plan{}, err
			}
		}
		if p.DeleteID != "" {
			if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, p.DeleteID); err != nil {
				return rating.Plan{}, fmt.Errorf("delete comment: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE items SET average_rating = $3, ratings_count = $4, updated_at = NOW()
			WHERE kind = $1 AND id = $2`,
			ref.Kind, ref.ID, p.Summary.AverageRating, p.Summary.RatingsCount,
		)
		if err != nil {
			return rating.Plan{}, fmt.Errorf("update item rating: %w", err)
		}
		return p, nil
	})
}

func upsertComment(ctx context.Context, tx pgx.Tx, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, kind, item_id, user_id, email, comment, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			comment = EXCLUDED.comment,
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at`

	_, err := tx.Exec(ctx, query,
		c.ID,
		c.Kind,
		c.ItemID,
		c.UserID,
		c.Email,
		c.Comment,
		c.Rating,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert comment: %w", err)
	}
	return nil
}

func listComments(ctx context.Context, db database.DBTX, ref domain.ItemRef) ([]domain.Comment, error) {
	rows, err := db.Query(ctx, listCommentsQuery, ref.Kind, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID,
			&c.Kind,
			&c.ItemID,
			&c.UserID,
			&c.Email,
			&c.Comment,
			&c.Rating,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}
	return comments, nil
}
