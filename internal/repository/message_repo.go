package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	sessionID uuid.UUID,
	senderID int64,
	senderRole string,
	content string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (session_id, sender_id, sender_role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, sender_id, sender_role, content, created_at
	`

	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query, sessionID, senderID, senderRole, content).Scan(
		&message.ID,
		&message.SessionID,
		&message.SenderID,
		&message.SenderRole,
		&message.Content,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *MessageRepository) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.ChatMessage, error) {
	query := `
		SELECT id, session_id, sender_id, sender_role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.SessionID,
			&message.SenderID,
			&message.SenderRole,
			&message.Content,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
