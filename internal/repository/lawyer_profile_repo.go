package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
)

type LawyerListFilter struct {
	Specialization string
	MinPrice       float64
	MaxPrice       float64
	OnlineOnly     bool
	Sort           string
	Offset         int
	Limit          int
}

type UpdateLawyerProfileInput struct {
	FullName        *string
	Specialization  *string
	Bio             *string
	ProfileImage    *string
	ExperienceYears *int
	RatePerMinute   *decimal.Decimal
}

const lawyerProfileColumns = `id, user_id, full_name, specialization, bio, profile_image,
		experience_years, rate_per_minute, rating, review_count, is_online, created_at, updated_at`

type LawyerProfileRepository struct {
	db DBTX
}

func NewLawyerProfileRepository(db DBTX) *LawyerProfileRepository {
	return &LawyerProfileRepository{db: db}
}

func (r *LawyerProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO lawyer_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *LawyerProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.LawyerProfile, error) {
	query := `
		SELECT ` + lawyerProfileColumns + `
		FROM lawyer_profiles
		WHERE user_id = $1
	`
	return r.scanRow(r.db.QueryRow(ctx, query, userID))
}

func (r *LawyerProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	input UpdateLawyerProfileInput,
) (*models.LawyerProfile, error) {
	query := `
		UPDATE lawyer_profiles
		SET full_name = COALESCE($1, full_name),
			specialization = COALESCE($2, specialization),
			bio = COALESCE($3, bio),
			profile_image = COALESCE($4, profile_image),
			experience_years = COALESCE($5, experience_years),
			rate_per_minute = COALESCE($6, rate_per_minute),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING ` + lawyerProfileColumns
	return r.scanRow(r.db.QueryRow(ctx, query,
		input.FullName,
		input.Specialization,
		input.Bio,
		input.ProfileImage,
		input.ExperienceYears,
		input.RatePerMinute,
		userID,
	))
}

func (r *LawyerProfileRepository) SetOnline(
	ctx context.Context,
	userID int64,
	online bool,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE lawyer_profiles
		SET is_online = $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, online)
	return err
}

// SetRating refreshes the denormalized review aggregate on the profile.
func (r *LawyerProfileRepository) SetRating(
	ctx context.Context,
	userID int64,
	rating float64,
	reviewCount int,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE lawyer_profiles
		SET rating = $2, review_count = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, rating, reviewCount)
	return err
}

func (r *LawyerProfileRepository) List(
	ctx context.Context,
	filter LawyerListFilter,
) ([]models.LawyerProfile, int, error) {
	args := []any{}
	whereParts := []string{"rate_per_minute IS NOT NULL"}

	if spec := strings.TrimSpace(filter.Specialization); spec != "" {
		args = append(args, spec)
		whereParts = append(whereParts, fmt.Sprintf("LOWER(specialization) = LOWER($%d)", len(args)))
	}
	if filter.MinPrice > 0 {
		args = append(args, filter.MinPrice)
		whereParts = append(whereParts, fmt.Sprintf("rate_per_minute >= $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		whereParts = append(whereParts, fmt.Sprintf("rate_per_minute <= $%d", len(args)))
	}
	if filter.OnlineOnly {
		whereParts = append(whereParts, "is_online = TRUE")
	}
	where := strings.Join(whereParts, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM lawyer_profiles WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "rating DESC NULLS LAST, review_count DESC"
	switch filter.Sort {
	case "price_asc":
		orderBy = "rate_per_minute ASC"
	case "price_desc":
		orderBy = "rate_per_minute DESC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT `+lawyerProfileColumns+`
		FROM lawyer_profiles
		WHERE %s
		ORDER BY %s, id ASC
		LIMIT $%d OFFSET $%d
	`, where, orderBy, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.LawyerProfile, 0)
	for rows.Next() {
		profile, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *LawyerProfileRepository) ListAll(ctx context.Context) ([]models.LawyerProfile, error) {
	query := `
		SELECT ` + lawyerProfileColumns + `
		FROM lawyer_profiles
		WHERE rate_per_minute IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.LawyerProfile, 0)
	for rows.Next() {
		profile, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *LawyerProfileRepository) scanRow(row rowScanner) (*models.LawyerProfile, error) {
	var profile models.LawyerProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Specialization,
		&profile.Bio,
		&profile.ProfileImage,
		&profile.ExperienceYears,
		&profile.RatePerMinute,
		&profile.Rating,
		&profile.ReviewCount,
		&profile.IsOnline,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
