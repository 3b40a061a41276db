package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

type stubWalletService struct {
	balanceResult      decimal.Decimal
	balanceErr         error
	transactionsResult []models.Transaction
	transactionsErr    error
	rechargeResult     decimal.Decimal
	rechargeErr        error

	lastUserID int64
	lastAmount decimal.Decimal
}

func (s *stubWalletService) Balance(_ context.Context, userID int64) (decimal.Decimal, error) {
	s.lastUserID = userID
	return s.balanceResult, s.balanceErr
}

func (s *stubWalletService) Transactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	s.lastUserID = userID
	return s.transactionsResult, s.transactionsErr
}

func (s *stubWalletService) Recharge(_ context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	s.lastUserID = userID
	s.lastAmount = amount
	return s.rechargeResult, s.rechargeErr
}

func newWalletTestApp(service *stubWalletService, userID int64) *fiber.App {
	handler := &WalletHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "user")
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/wallet/balance", handler.GetBalance)
	app.Get("/api/wallet/transactions", handler.ListTransactions)
	app.Post("/api/wallet/recharge", handler.Recharge)
	return app
}

func TestGetBalanceReturnsWalletBalance(t *testing.T) {
	service := &stubWalletService{balanceResult: decimal.RequireFromString("140.50")}
	app := newWalletTestApp(service, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet/balance", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 {
		t.Fatalf("expected user 42, got %d", service.lastUserID)
	}

	var body struct {
		Balance string `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Balance != "140.5" {
		t.Fatalf("expected balance 140.5, got %s", body.Balance)
	}
}

func TestRechargeForwardsAmount(t *testing.T) {
	service := &stubWalletService{rechargeResult: decimal.NewFromInt(250)}
	app := newWalletTestApp(service, 42)

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/recharge", strings.NewReader(`{"amount": 100}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !service.lastAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected forwarded amount 100, got %s", service.lastAmount)
	}
}

func TestRechargeRejectsNonPositiveAmount(t *testing.T) {
	service := &stubWalletService{rechargeErr: services.ErrInvalidInput}
	app := newWalletTestApp(service, 42)

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/recharge", strings.NewReader(`{"amount": 0}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListTransactionsReturnsLedgerEntries(t *testing.T) {
	service := &stubWalletService{
		transactionsResult: []models.Transaction{
			{ID: 1, Type: models.TransactionCredit, Amount: decimal.NewFromInt(100), Reason: "recharge"},
			{ID: 2, Type: models.TransactionDebit, Amount: decimal.NewFromInt(60), Reason: "consultation"},
		},
	}
	app := newWalletTestApp(service, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet/transactions", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(body.Transactions))
	}
	if body.Transactions[0].Type != models.TransactionCredit {
		t.Fatalf("expected first entry CREDIT, got %q", body.Transactions[0].Type)
	}
}
