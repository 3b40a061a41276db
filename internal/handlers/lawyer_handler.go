package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

type lawyerApplicationService interface {
	List(ctx context.Context, filter repository.LawyerListFilter) ([]models.LawyerProfile, int, error)
	Get(ctx context.Context, userID int64) (*models.LawyerProfile, error)
	UpdateProfile(ctx context.Context, userID int64, input repository.UpdateLawyerProfileInput) (*models.LawyerProfile, error)
	SetOnline(ctx context.Context, userID int64, online bool) error
	Recommended(ctx context.Context, specialization string, limit int) ([]models.LawyerWithScore, error)
}

type LawyerHandler struct {
	service lawyerApplicationService
}

func NewLawyerHandler(service *services.LawyerService) *LawyerHandler {
	return &LawyerHandler{service: service}
}

type updateLawyerProfileRequest struct {
	FullName        *string  `json:"fullName"`
	Specialization  *string  `json:"specialization"`
	Bio             *string  `json:"bio"`
	ProfileImage    *string  `json:"profileImage"`
	ExperienceYears *int     `json:"experienceYears"`
	RatePerMinute   *float64 `json:"ratePerMinute"`
}

type setOnlineRequest struct {
	Online bool `json:"online"`
}

func (h *LawyerHandler) ListLawyers(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minPrice, err := parseNonNegativeFloat(c.Query("min_price"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_price must be a valid non-negative number"})
	}
	maxPrice, err := parseNonNegativeFloat(c.Query("max_price"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_price must be a valid non-negative number"})
	}

	sort := strings.TrimSpace(c.Query("sort"))
	if sort != "" && sort != "price_asc" && sort != "price_desc" && sort != "rating" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sort must be price_asc, price_desc or rating"})
	}

	lawyers, total, err := h.service.List(c.Context(), repository.LawyerListFilter{
		Specialization: strings.TrimSpace(c.Query("specialization")),
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		OnlineOnly:     c.QueryBool("online"),
		Sort:           sort,
		Offset:         (page - 1) * limit,
		Limit:          limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch lawyers"})
	}

	return c.JSON(fiber.Map{
		"lawyers":    lawyers,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *LawyerHandler) GetRecommendedLawyers(c *fiber.Ctx) error {
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	lawyers, err := h.service.Recommended(
		c.Context(), strings.TrimSpace(c.Query("specialization")), limit,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recommended lawyers"})
	}

	return c.JSON(fiber.Map{"lawyers": lawyers})
}

func (h *LawyerHandler) GetLawyer(c *fiber.Ctx) error {
	lawyerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lawyerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lawyer id"})
	}

	lawyer, err := h.service.Get(c.Context(), lawyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lawyer not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch lawyer"})
	}

	return c.JSON(fiber.Map{"lawyer": lawyer})
}

func (h *LawyerHandler) UpdateProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "lawyer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	lawyerID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateLawyerProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := repository.UpdateLawyerProfileInput{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		Bio:             req.Bio,
		ProfileImage:    req.ProfileImage,
		ExperienceYears: req.ExperienceYears,
	}
	if req.RatePerMinute != nil {
		rate := decimal.NewFromFloat(*req.RatePerMinute)
		input.RatePerMinute = &rate
	}

	profile, err := h.service.UpdateProfile(c.Context(), lawyerID, input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid profile fields"})
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *LawyerHandler) SetOnline(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "lawyer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	lawyerID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req setOnlineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.service.SetOnline(c.Context(), lawyerID, req.Online); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update availability"})
	}

	return c.JSON(fiber.Map{"online": req.Online})
}
