package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SenderRoleUser   = "USER"
	SenderRoleLawyer = "LAWYER"
)

// ChatMessage is written to clients as-is, both over the transcript endpoint
// and in RECEIVE_MESSAGE frames, so its tags follow the socket wire casing.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SessionID  uuid.UUID `json:"sessionId"`
	SenderID   int64     `json:"senderId"`
	SenderRole string    `json:"senderRole"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
