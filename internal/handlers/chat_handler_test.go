package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

type stubChatService struct {
	listResult []models.ChatMessage
	listErr    error

	lastUserID    int64
	lastSessionID uuid.UUID
}

func (s *stubChatService) ListMessages(_ context.Context, requesterID int64, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	s.lastUserID = requesterID
	s.lastSessionID = sessionID
	return s.listResult, s.listErr
}

func (s *stubChatService) SendMessage(_ context.Context, _ int64, _ uuid.UUID, _ string) (*services.ChatDelivery, error) {
	return nil, nil
}

func (s *stubChatService) EnsureParticipant(_ context.Context, _ int64, _ uuid.UUID) (*models.ConsultSession, error) {
	return nil, nil
}

func newChatTestApp(service *stubChatService, userID int64) *fiber.App {
	handler := &ChatHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "user")
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/chat/:sessionId", handler.GetMessages)
	return app
}

func TestGetMessagesReturnsTranscript(t *testing.T) {
	sessionID := uuid.New()
	service := &stubChatService{
		listResult: []models.ChatMessage{
			{ID: 1, SessionID: sessionID, SenderID: 42, SenderRole: models.SenderRoleUser, Content: "hello", CreatedAt: time.Now().UTC()},
			{ID: 2, SessionID: sessionID, SenderID: 7, SenderRole: models.SenderRoleLawyer, Content: "hi", CreatedAt: time.Now().UTC()},
		},
	}
	app := newChatTestApp(service, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+sessionID.String(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 || service.lastSessionID != sessionID {
		t.Fatalf("unexpected forwarded args: user=%d session=%s", service.lastUserID, service.lastSessionID)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
	if body.Messages[0].SenderRole != models.SenderRoleUser {
		t.Fatalf("expected USER sender role, got %q", body.Messages[0].SenderRole)
	}

	// Transcript messages share the socket frame casing throughout.
	var keyed struct {
		Messages []map[string]json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &keyed); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	for _, key := range []string{"sessionId", "senderId", "senderRole", "createdAt"} {
		if _, ok := keyed.Messages[0][key]; !ok {
			t.Fatalf("expected message key %q, got %v", key, keyed.Messages[0])
		}
	}
}

func TestGetMessagesMapsForbidden(t *testing.T) {
	service := &stubChatService{listErr: services.ErrForbidden}
	app := newChatTestApp(service, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetMessagesMapsMissingSession(t *testing.T) {
	service := &stubChatService{listErr: pgx.ErrNoRows}
	app := newChatTestApp(service, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
