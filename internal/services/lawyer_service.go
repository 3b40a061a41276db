package services

import (
	"context"
	"sort"
	"strings"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
)

type LawyerDirectory interface {
	List(ctx context.Context, filter repository.LawyerListFilter) ([]models.LawyerProfile, int, error)
	ListAll(ctx context.Context) ([]models.LawyerProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.LawyerProfile, error)
	UpdatePartial(ctx context.Context, userID int64, input repository.UpdateLawyerProfileInput) (*models.LawyerProfile, error)
	SetOnline(ctx context.Context, userID int64, online bool) error
}

type LawyerService struct {
	lawyerRepo LawyerDirectory
}

func NewLawyerService(lawyerRepo LawyerDirectory) *LawyerService {
	return &LawyerService{lawyerRepo: lawyerRepo}
}

func (s *LawyerService) List(
	ctx context.Context,
	filter repository.LawyerListFilter,
) ([]models.LawyerProfile, int, error) {
	return s.lawyerRepo.List(ctx, filter)
}

func (s *LawyerService) Get(ctx context.Context, userID int64) (*models.LawyerProfile, error) {
	return s.lawyerRepo.GetByUserID(ctx, userID)
}

func (s *LawyerService) UpdateProfile(
	ctx context.Context,
	userID int64,
	input repository.UpdateLawyerProfileInput,
) (*models.LawyerProfile, error) {
	if input.RatePerMinute != nil && !input.RatePerMinute.IsPositive() {
		return nil, ErrInvalidInput
	}
	if input.ExperienceYears != nil && *input.ExperienceYears < 0 {
		return nil, ErrInvalidInput
	}
	return s.lawyerRepo.UpdatePartial(ctx, userID, input)
}

func (s *LawyerService) SetOnline(ctx context.Context, userID int64, online bool) error {
	return s.lawyerRepo.SetOnline(ctx, userID, online)
}

// Recommended ranks the directory for a user browsing without a specific
// lawyer in mind. Availability dominates the score so an online lawyer with
// middling reviews still outranks an offline star.
func (s *LawyerService) Recommended(
	ctx context.Context,
	specialization string,
	limit int,
) ([]models.LawyerWithScore, error) {
	lawyers, err := s.lawyerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	wanted := specializationAliases(specialization)

	ranked := make([]models.LawyerWithScore, 0, len(lawyers))
	for _, lawyer := range lawyers {
		ranked = append(ranked, models.LawyerWithScore{
			LawyerProfile: lawyer,
			MatchScore:    calculateLawyerScore(&lawyer, wanted),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchScore == ranked[j].MatchScore {
			return floatValue(ranked[i].Rating) > floatValue(ranked[j].Rating)
		}
		return ranked[i].MatchScore > ranked[j].MatchScore
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

func calculateLawyerScore(lawyer *models.LawyerProfile, wanted map[string]struct{}) int {
	score := 0

	if lawyer.IsOnline {
		score += 40
	}

	if len(wanted) > 0 && lawyer.Specialization != nil {
		if _, ok := wanted[normalize(*lawyer.Specialization)]; ok {
			score += 30
		}
	}

	switch rating := floatValue(lawyer.Rating); {
	case rating >= 4.5:
		score += 25
	case rating >= 4.0:
		score += 15
	}

	switch years := intValue(lawyer.ExperienceYears); {
	case years > 5:
		score += 20
	case years > 2:
		score += 10
	}

	switch {
	case lawyer.ReviewCount >= 10:
		score += 15
	case lawyer.ReviewCount > 0:
		score += 5
	}

	return score
}

func specializationAliases(specialization string) map[string]struct{} {
	key := normalize(specialization)
	if key == "" {
		return nil
	}

	aliases := map[string]struct{}{key: {}}
	switch key {
	case "criminal", "criminal_law":
		aliases["criminal"] = struct{}{}
		aliases["criminal_law"] = struct{}{}
	case "family", "family_law", "divorce":
		aliases["family"] = struct{}{}
		aliases["family_law"] = struct{}{}
		aliases["divorce"] = struct{}{}
	case "property", "property_law", "real_estate":
		aliases["property"] = struct{}{}
		aliases["property_law"] = struct{}{}
		aliases["real_estate"] = struct{}{}
	case "corporate", "corporate_law", "business":
		aliases["corporate"] = struct{}{}
		aliases["corporate_law"] = struct{}{}
		aliases["business"] = struct{}{}
	}
	return aliases
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValue(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
