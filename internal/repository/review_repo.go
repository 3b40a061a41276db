package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
)

type CreateReviewInput struct {
	SessionID uuid.UUID
	UserID    int64
	LawyerID  int64
	Rating    int
	Comment   *string
}

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, input CreateReviewInput) (*models.Review, error) {
	query := `
		INSERT INTO reviews (session_id, user_id, lawyer_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, user_id, lawyer_id, rating, comment, created_at
	`

	var review models.Review
	err := r.db.QueryRow(ctx, query, input.SessionID, input.UserID, input.LawyerID, input.Rating, input.Comment).Scan(
		&review.ID,
		&review.SessionID,
		&review.UserID,
		&review.LawyerID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ExistsForSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE session_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReviewRepository) ListByLawyer(ctx context.Context, lawyerID int64) ([]models.Review, error) {
	query := `
		SELECT id, session_id, user_id, lawyer_id, rating, comment, created_at
		FROM reviews
		WHERE lawyer_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, lawyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.SessionID,
			&review.UserID,
			&review.LawyerID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}

// AggregateForLawyer returns the average rating and review count.
func (r *ReviewRepository) AggregateForLawyer(
	ctx context.Context,
	lawyerID int64,
) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE lawyer_id = $1
	`
	var avg float64
	var count int
	if err := r.db.QueryRow(ctx, query, lawyerID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}
