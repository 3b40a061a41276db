package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
)

const maxMessageLength = 4000

// ChatDelivery carries a persisted message plus where it still has to go.
type ChatDelivery struct {
	Session     *models.ConsultSession
	Message     *models.ChatMessage
	RecipientID int64
}

type ChatService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	messageRepo *repository.MessageRepository
}

func NewChatService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
) *ChatService {
	return &ChatService{db: db, sessionRepo: sessionRepo, messageRepo: messageRepo}
}

// SendMessage persists a message into an ACTIVE session. The session row is
// locked while the message is written, so a settlement committing at the same
// moment either sees the message inside the session or rejects it, never a
// message dangling after the end timestamp.
func (s *ChatService) SendMessage(
	ctx context.Context,
	senderID int64,
	sessionID uuid.UUID,
	content string,
) (*ChatDelivery, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxMessageLength {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var senderRole string
	var recipientID int64
	switch senderID {
	case session.UserID:
		senderRole = models.SenderRoleUser
		recipientID = session.LawyerID
	case session.LawyerID:
		senderRole = models.SenderRoleLawyer
		recipientID = session.UserID
	default:
		return nil, ErrForbidden
	}

	if session.Status != models.SessionActive {
		return nil, ErrSessionNotActive
	}

	message, err := txMessageRepo.Create(ctx, sessionID, senderID, senderRole, content)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ChatDelivery{Session: session, Message: message, RecipientID: recipientID}, nil
}

// ListMessages returns the session transcript in send order. Both
// participants may read it, including after the session ends.
func (s *ChatService) ListMessages(
	ctx context.Context,
	requesterID int64,
	sessionID uuid.UUID,
) ([]models.ChatMessage, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != requesterID && session.LawyerID != requesterID {
		return nil, ErrForbidden
	}

	return s.messageRepo.ListBySession(ctx, sessionID)
}

// EnsureParticipant reports whether the user belongs to the session at all,
// used to gate socket room joins.
func (s *ChatService) EnsureParticipant(
	ctx context.Context,
	userID int64,
	sessionID uuid.UUID,
) (*models.ConsultSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID && session.LawyerID != userID {
		return nil, ErrForbidden
	}
	return session, nil
}
