package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

type stubConsultService struct {
	startResult   *models.ConsultSession
	startErr      error
	acceptResult  *models.ConsultSession
	acceptErr     error
	declineResult *models.ConsultSession
	declineErr    error
	cancelResult  *models.ConsultSession
	cancelErr     error
	endResult     *models.ConsultationSummary
	endErr        error
	liveResult    *models.ConsultSession
	liveErr       error
	listResult    []models.ConsultSession
	listErr       error

	lastUserID    int64
	lastLawyerID  int64
	lastType      string
	lastSessionID uuid.UUID
	lastReason    string
}

func (s *stubConsultService) StartSession(_ context.Context, userID int64, lawyerID int64, consultType string) (*models.ConsultSession, error) {
	s.lastUserID = userID
	s.lastLawyerID = lawyerID
	s.lastType = consultType
	return s.startResult, s.startErr
}

func (s *stubConsultService) AcceptSession(_ context.Context, sessionID uuid.UUID, lawyerID int64) (*models.ConsultSession, error) {
	s.lastSessionID = sessionID
	s.lastLawyerID = lawyerID
	return s.acceptResult, s.acceptErr
}

func (s *stubConsultService) DeclineSession(_ context.Context, sessionID uuid.UUID, lawyerID int64, reason string) (*models.ConsultSession, error) {
	s.lastSessionID = sessionID
	s.lastLawyerID = lawyerID
	s.lastReason = reason
	return s.declineResult, s.declineErr
}

func (s *stubConsultService) CancelSession(_ context.Context, sessionID uuid.UUID, userID int64) (*models.ConsultSession, error) {
	s.lastSessionID = sessionID
	s.lastUserID = userID
	return s.cancelResult, s.cancelErr
}

func (s *stubConsultService) EndSession(_ context.Context, sessionID uuid.UUID, requesterID int64) (*models.ConsultationSummary, error) {
	s.lastSessionID = sessionID
	s.lastUserID = requesterID
	return s.endResult, s.endErr
}

func (s *stubConsultService) LiveSession(_ context.Context, participantID int64) (*models.ConsultSession, error) {
	s.lastUserID = participantID
	return s.liveResult, s.liveErr
}

func (s *stubConsultService) ListSessions(_ context.Context, participantID int64) ([]models.ConsultSession, error) {
	s.lastUserID = participantID
	return s.listResult, s.listErr
}

func newConsultTestApp(service *stubConsultService, role string, userID int64) *fiber.App {
	handler := &ConsultHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/consult/start", handler.StartConsult)
	app.Post("/api/consult/:id/accept", handler.AcceptConsult)
	app.Post("/api/consult/:id/decline", handler.DeclineConsult)
	app.Post("/api/consult/:id/end", handler.EndConsult)
	app.Post("/api/consult/cancel/:id", handler.CancelConsult)
	app.Get("/api/consult/active", handler.ActiveConsult)
	return app
}

func TestStartConsultReturnsCreatedSession(t *testing.T) {
	sessionID := uuid.New()
	service := &stubConsultService{
		startResult: &models.ConsultSession{
			ID:            sessionID,
			UserID:        42,
			LawyerID:      7,
			Type:          models.ConsultTypeChat,
			RatePerMinute: decimal.NewFromInt(20),
			Status:        models.SessionRequested,
		},
	}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/start", strings.NewReader(`{
		"lawyerId": 7,
		"type": "CHAT"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 || service.lastLawyerID != 7 || service.lastType != "CHAT" {
		t.Fatalf("unexpected forwarded args: user=%d lawyer=%d type=%q",
			service.lastUserID, service.lastLawyerID, service.lastType)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body struct {
		SessionID string `json:"sessionId"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.SessionID != sessionID.String() {
		t.Fatalf("expected session id %s, got %s", sessionID, body.SessionID)
	}
	if body.Status != models.SessionRequested {
		t.Fatalf("expected status REQUESTED, got %q", body.Status)
	}

	// startedAt is part of the response shape and stays null until accept.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	started, ok := keys["startedAt"]
	if !ok || string(started) != "null" {
		t.Fatalf("expected null startedAt on a requested session, got %s", started)
	}
}

func TestStartConsultRejectsLawyerRole(t *testing.T) {
	service := &stubConsultService{}
	app := newConsultTestApp(service, "lawyer", 7)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/start", strings.NewReader(`{"lawyerId":9,"type":"CHAT"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestStartConsultMapsInsufficientFunds(t *testing.T) {
	service := &stubConsultService{startErr: services.ErrInsufficientFunds}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/start", strings.NewReader(`{"lawyerId":7,"type":"CHAT"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}
}

func TestStartConsultMapsLawyerUnavailable(t *testing.T) {
	service := &stubConsultService{startErr: services.ErrLawyerUnavailable}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/start", strings.NewReader(`{"lawyerId":7,"type":"CHAT"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestAcceptConsultReturnsActiveSession(t *testing.T) {
	sessionID := uuid.New()
	startedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	service := &stubConsultService{
		acceptResult: &models.ConsultSession{
			ID:        sessionID,
			UserID:    42,
			LawyerID:  7,
			Status:    models.SessionActive,
			StartedAt: &startedAt,
		},
	}
	app := newConsultTestApp(service, "lawyer", 7)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/"+sessionID.String()+"/accept", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != sessionID || service.lastLawyerID != 7 {
		t.Fatalf("unexpected forwarded args: session=%s lawyer=%d", service.lastSessionID, service.lastLawyerID)
	}

	var body struct {
		Status    string  `json:"status"`
		StartedAt *string `json:"startedAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != models.SessionActive {
		t.Fatalf("expected status ACTIVE, got %q", body.Status)
	}
	if body.StartedAt == nil {
		t.Fatal("expected startedAt in response")
	}
}

func TestAcceptConsultMapsInvalidTransition(t *testing.T) {
	service := &stubConsultService{acceptErr: services.ErrInvalidTransition}
	app := newConsultTestApp(service, "lawyer", 7)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/"+uuid.NewString()+"/accept", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestDeclineConsultForwardsReason(t *testing.T) {
	sessionID := uuid.New()
	service := &stubConsultService{
		declineResult: &models.ConsultSession{ID: sessionID, Status: models.SessionDeclined},
	}
	app := newConsultTestApp(service, "lawyer", 7)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/"+sessionID.String()+"/decline",
		strings.NewReader(`{"reason":"in court"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastReason != "in court" {
		t.Fatalf("expected forwarded reason, got %q", service.lastReason)
	}
}

func TestEndConsultReturnsSettlementSummary(t *testing.T) {
	sessionID := uuid.New()
	service := &stubConsultService{
		endResult: &models.ConsultationSummary{
			SessionID:        sessionID,
			TotalAmount:      decimal.NewFromInt(60),
			DurationSeconds:  125,
			Commission:       decimal.NewFromInt(12),
			LawyerEarning:    decimal.NewFromInt(48),
			RemainingBalance: decimal.NewFromInt(140),
		},
	}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/"+sessionID.String()+"/end", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		TotalAmount      string `json:"totalAmount"`
		DurationSeconds  int64  `json:"durationSeconds"`
		Commission       string `json:"commission"`
		LawyerEarning    string `json:"lawyerEarning"`
		RemainingBalance string `json:"remainingBalance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TotalAmount != "60" || body.Commission != "12" || body.LawyerEarning != "48" {
		t.Fatalf("unexpected settlement figures: %+v", body)
	}
	if body.DurationSeconds != 125 {
		t.Fatalf("expected duration 125, got %d", body.DurationSeconds)
	}
	if body.RemainingBalance != "140" {
		t.Fatalf("expected remaining balance 140, got %s", body.RemainingBalance)
	}
}

func TestEndConsultMapsSessionNotActive(t *testing.T) {
	service := &stubConsultService{endErr: services.ErrSessionNotActive}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/"+uuid.NewString()+"/end", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestEndConsultRejectsInvalidSessionID(t *testing.T) {
	service := &stubConsultService{}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/not-a-uuid/end", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestActiveConsultReturnsNullWithoutLiveSession(t *testing.T) {
	service := &stubConsultService{liveErr: pgx.ErrNoRows}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodGet, "/api/consult/active", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Session *models.ConsultSession `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Session != nil {
		t.Fatalf("expected null session, got %+v", body.Session)
	}
}

func TestCancelConsultForwardsParticipant(t *testing.T) {
	sessionID := uuid.New()
	service := &stubConsultService{
		cancelResult: &models.ConsultSession{ID: sessionID, Status: models.SessionCancelled},
	}
	app := newConsultTestApp(service, "user", 42)

	req := httptest.NewRequest(http.MethodPost, "/api/consult/cancel/"+sessionID.String(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != sessionID || service.lastUserID != 42 {
		t.Fatalf("unexpected forwarded args: session=%s user=%d", service.lastSessionID, service.lastUserID)
	}
}
