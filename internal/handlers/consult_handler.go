package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

type consultApplicationService interface {
	StartSession(ctx context.Context, userID int64, lawyerID int64, consultType string) (*models.ConsultSession, error)
	AcceptSession(ctx context.Context, sessionID uuid.UUID, lawyerID int64) (*models.ConsultSession, error)
	DeclineSession(ctx context.Context, sessionID uuid.UUID, lawyerID int64, reason string) (*models.ConsultSession, error)
	CancelSession(ctx context.Context, sessionID uuid.UUID, userID int64) (*models.ConsultSession, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, requesterID int64) (*models.ConsultationSummary, error)
	LiveSession(ctx context.Context, participantID int64) (*models.ConsultSession, error)
	ListSessions(ctx context.Context, participantID int64) ([]models.ConsultSession, error)
}

type ConsultHandler struct {
	service consultApplicationService
}

func NewConsultHandler(service *services.ConsultService) *ConsultHandler {
	return &ConsultHandler{service: service}
}

type startConsultRequest struct {
	LawyerID int64  `json:"lawyerId"`
	Type     string `json:"type"`
}

type declineConsultRequest struct {
	Reason string `json:"reason"`
}

func (h *ConsultHandler) StartConsult(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "user" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req startConsultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.StartSession(c.Context(), userID, req.LawyerID, req.Type)
	if err != nil {
		return mapConsultError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Consultation requested",
		"sessionId":     session.ID,
		"status":        session.Status,
		"ratePerMinute": session.RatePerMinute,
		"startedAt":     session.StartedAt,
	})
}

func (h *ConsultHandler) AcceptConsult(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "lawyer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	lawyerID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.AcceptSession(c.Context(), sessionID, lawyerID)
	if err != nil {
		return mapConsultError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Consultation started",
		"sessionId": session.ID,
		"status":    session.Status,
		"startedAt": session.StartedAt,
	})
}

func (h *ConsultHandler) DeclineConsult(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "lawyer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	lawyerID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req declineConsultRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	session, err := h.service.DeclineSession(c.Context(), sessionID, lawyerID, req.Reason)
	if err != nil {
		return mapConsultError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Consultation declined",
		"sessionId": session.ID,
		"status":    session.Status,
	})
}

func (h *ConsultHandler) CancelConsult(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "user" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.CancelSession(c.Context(), sessionID, userID)
	if err != nil {
		return mapConsultError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Consultation cancelled",
		"sessionId": session.ID,
		"status":    session.Status,
	})
}

func (h *ConsultHandler) EndConsult(c *fiber.Ctx) error {
	requesterID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	summary, err := h.service.EndSession(c.Context(), sessionID, requesterID)
	if err != nil {
		return mapConsultError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":          "Consultation ended",
		"sessionId":        summary.SessionID,
		"totalAmount":      summary.TotalAmount,
		"durationSeconds":  summary.DurationSeconds,
		"commission":       summary.Commission,
		"lawyerEarning":    summary.LawyerEarning,
		"remainingBalance": summary.RemainingBalance,
	})
}

func (h *ConsultHandler) ActiveConsult(c *fiber.Ctx) error {
	participantID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	session, err := h.service.LiveSession(c.Context(), participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(fiber.Map{"session": nil})
		}
		return mapConsultError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *ConsultHandler) ListConsults(c *fiber.Ctx) error {
	participantID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessions, err := h.service.ListSessions(c.Context(), participantID)
	if err != nil {
		return mapConsultError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func mapConsultError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient wallet balance"})
	case errors.Is(err, services.ErrLawyerUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Lawyer is not available"})
	case errors.Is(err, services.ErrSessionInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Another consultation is already in progress"})
	case errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session is not in a state that allows this action"})
	case errors.Is(err, services.ErrSessionNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session is not active"})
	case errors.Is(err, services.ErrLawyerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lawyer not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process consultation request"})
	}
}
