package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	UserID    int64     `json:"user_id"`
	LawyerID  int64     `json:"lawyer_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
