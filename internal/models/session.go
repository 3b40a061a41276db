package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Consultation session states. ENDED, FORCE_ENDED, CANCELLED and DECLINED are
// terminal; a session reaches at most one of them, exactly once.
const (
	SessionRequested  = "REQUESTED"
	SessionAccepted   = "ACCEPTED"
	SessionActive     = "ACTIVE"
	SessionEnded      = "ENDED"
	SessionForceEnded = "FORCE_ENDED"
	SessionCancelled  = "CANCELLED"
	SessionDeclined   = "DECLINED"
)

const (
	ConsultTypeChat = "CHAT"
	ConsultTypeCall = "CALL"
)

type ConsultSession struct {
	ID            uuid.UUID        `json:"id"`
	UserID        int64            `json:"user_id"`
	LawyerID      int64            `json:"lawyer_id"`
	Type          string           `json:"type"`
	RatePerMinute decimal.Decimal  `json:"rate_per_minute"`
	Status        string           `json:"status"`
	StartedAt     *time.Time       `json:"started_at"`
	EndedAt       *time.Time       `json:"ended_at"`
	EndReason     *string          `json:"end_reason"`
	TotalAmount   *decimal.Decimal `json:"total_amount"`
	Commission    *decimal.Decimal `json:"commission"`
	LawyerEarning *decimal.Decimal `json:"lawyer_earning"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Terminal reports whether the session can never transition again.
func (s *ConsultSession) Terminal() bool {
	switch s.Status {
	case SessionEnded, SessionForceEnded, SessionCancelled, SessionDeclined:
		return true
	}
	return false
}

type ConsultationSummary struct {
	SessionID        uuid.UUID       `json:"sessionId"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	DurationSeconds  int64           `json:"durationSeconds"`
	Commission       decimal.Decimal `json:"commission"`
	LawyerEarning    decimal.Decimal `json:"lawyerEarning"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}
