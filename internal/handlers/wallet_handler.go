package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

type walletApplicationService interface {
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	Recharge(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

type WalletHandler struct {
	service walletApplicationService
}

func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

type rechargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	balance, err := h.service.Balance(c.Context(), userID)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance})
}

func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	transactions, err := h.service.Transactions(c.Context(), userID)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{"transactions": transactions})
}

func (h *WalletHandler) Recharge(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req rechargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	balance, err := h.service.Recharge(c.Context(), userID, req.Amount)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Wallet recharged",
		"balance": balance,
	})
}

func mapWalletError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be greater than 0"})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient wallet balance"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Wallet not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process wallet request"})
	}
}
