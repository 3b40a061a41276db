package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
)

const maxReviewCommentLength = 2000

type ReviewService struct {
	db          *pgxpool.Pool
	reviewRepo  *repository.ReviewRepository
	sessionRepo *repository.SessionRepository
	lawyerRepo  *repository.LawyerProfileRepository
}

func NewReviewService(
	db *pgxpool.Pool,
	reviewRepo *repository.ReviewRepository,
	sessionRepo *repository.SessionRepository,
	lawyerRepo *repository.LawyerProfileRepository,
) *ReviewService {
	return &ReviewService{
		db:          db,
		reviewRepo:  reviewRepo,
		sessionRepo: sessionRepo,
		lawyerRepo:  lawyerRepo,
	}
}

// CreateReview records a one-per-session rating from the user side and folds
// it into the lawyer's cached aggregate in the same transaction.
func (s *ReviewService) CreateReview(
	ctx context.Context,
	userID int64,
	sessionID uuid.UUID,
	rating int,
	comment string,
) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxReviewCommentLength {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	if !session.Terminal() || session.Status == models.SessionCancelled ||
		session.Status == models.SessionDeclined {
		return nil, ErrSessionNotEnded
	}

	exists, err := s.reviewRepo.ExistsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewExists
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txReviewRepo := repository.NewReviewRepository(tx)
	txLawyerRepo := repository.NewLawyerProfileRepository(tx)

	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}

	review, err := txReviewRepo.Create(ctx, repository.CreateReviewInput{
		SessionID: sessionID,
		UserID:    userID,
		LawyerID:  session.LawyerID,
		Rating:    rating,
		Comment:   commentPtr,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrReviewExists
		}
		return nil, err
	}

	average, count, err := txReviewRepo.AggregateForLawyer(ctx, session.LawyerID)
	if err != nil {
		return nil, err
	}
	if err := txLawyerRepo.SetRating(ctx, session.LawyerID, average, count); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return review, nil
}

func (s *ReviewService) ListForLawyer(
	ctx context.Context,
	lawyerID int64,
) ([]models.Review, error) {
	return s.reviewRepo.ListByLawyer(ctx, lawyerID)
}
