package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LawyerProfile struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	FullName        *string          `json:"full_name"`
	Specialization  *string          `json:"specialization"`
	Bio             *string          `json:"bio"`
	ProfileImage    *string          `json:"profile_image"`
	ExperienceYears *int             `json:"experience_years"`
	RatePerMinute   *decimal.Decimal `json:"rate_per_minute"`
	Rating          *float64         `json:"rating"`
	ReviewCount     int              `json:"review_count"`
	IsOnline        bool             `json:"is_online"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type LawyerWithScore struct {
	LawyerProfile
	MatchScore int `json:"match_score"`
}

// Consultable reports whether the lawyer can receive session requests right
// now: profile filled in with a positive per-minute rate, and online.
func (p *LawyerProfile) Consultable() bool {
	return p.IsOnline && p.RatePerMinute != nil && p.RatePerMinute.IsPositive()
}
