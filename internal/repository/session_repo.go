package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
)

type CreateSessionInput struct {
	UserID        int64
	LawyerID      int64
	Type          string
	RatePerMinute decimal.Decimal
}

// SettleSessionInput carries everything a terminal transition writes in one
// statement alongside the status guard.
type SettleSessionInput struct {
	SessionID     uuid.UUID
	FromStatus    string
	ToStatus      string
	EndedAt       time.Time
	TotalAmount   decimal.Decimal
	Commission    decimal.Decimal
	LawyerEarning decimal.Decimal
	Reason        *string
}

const sessionColumns = `id, user_id, lawyer_id, type, rate_per_minute, status,
		started_at, ended_at, end_reason, total_amount, commission, lawyer_earning,
		created_at, updated_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.ConsultSession, error) {
	query := `
		INSERT INTO consult_sessions (id, user_id, lawyer_id, type, rate_per_minute, status)
		VALUES ($1, $2, $3, $4, $5, 'REQUESTED')
		RETURNING ` + sessionColumns
	return r.scanRow(r.db.QueryRow(
		ctx,
		query,
		uuid.New(),
		input.UserID,
		input.LawyerID,
		input.Type,
		input.RatePerMinute,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*models.ConsultSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consult_sessions
		WHERE id = $1
	`
	return r.scanRow(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.ConsultSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consult_sessions
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanRow(r.db.QueryRow(ctx, query, sessionID))
}

// GetLiveByParticipant returns the participant's current non-terminal session,
// or pgx.ErrNoRows. A partial unique index keeps this at most one per user.
func (r *SessionRepository) GetLiveByParticipant(
	ctx context.Context,
	participantID int64,
) (*models.ConsultSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consult_sessions
		WHERE (user_id = $1 OR lawyer_id = $1)
		  AND status IN ('REQUESTED', 'ACCEPTED', 'ACTIVE')
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanRow(r.db.QueryRow(ctx, query, participantID))
}

// UpdateStatusIfCurrent flips the status only when the row is still in
// currentStatus; pgx.ErrNoRows means another caller won the transition.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID uuid.UUID,
	currentStatus string,
	nextStatus string,
) (*models.ConsultSession, error) {
	query := `
		UPDATE consult_sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return r.scanRow(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// Activate moves an ACCEPTED session to ACTIVE and stamps started_at in the
// same guarded statement, so billing start cannot be applied twice.
func (r *SessionRepository) Activate(
	ctx context.Context,
	sessionID uuid.UUID,
	startedAt time.Time,
) (*models.ConsultSession, error) {
	query := `
		UPDATE consult_sessions
		SET status = 'ACTIVE', started_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'ACCEPTED'
		RETURNING ` + sessionColumns
	return r.scanRow(r.db.QueryRow(ctx, query, sessionID, startedAt))
}

// Settle applies a terminal transition together with the settlement figures.
func (r *SessionRepository) Settle(
	ctx context.Context,
	input SettleSessionInput,
) (*models.ConsultSession, error) {
	query := `
		UPDATE consult_sessions
		SET status = $3,
			ended_at = $4,
			end_reason = $5,
			total_amount = $6,
			commission = $7,
			lawyer_earning = $8,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return r.scanRow(r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.FromStatus,
		input.ToStatus,
		input.EndedAt,
		input.Reason,
		input.TotalAmount,
		input.Commission,
		input.LawyerEarning,
	))
}

// Terminate closes a session that never went ACTIVE (declined or cancelled),
// with no settlement figures.
func (r *SessionRepository) Terminate(
	ctx context.Context,
	sessionID uuid.UUID,
	currentStatus string,
	nextStatus string,
	reason *string,
) (*models.ConsultSession, error) {
	query := `
		UPDATE consult_sessions
		SET status = $3, end_reason = $4, ended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return r.scanRow(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus, reason))
}

func (r *SessionRepository) ListActive(ctx context.Context) ([]models.ConsultSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consult_sessions
		WHERE status = 'ACTIVE'
		ORDER BY started_at ASC
	`
	return r.list(ctx, query)
}

func (r *SessionRepository) ListRequestedBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]models.ConsultSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consult_sessions
		WHERE status = 'REQUESTED' AND created_at < $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, cutoff)
}

func (r *SessionRepository) ListByParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConsultSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consult_sessions
		WHERE user_id = $1 OR lawyer_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, participantID)
}

func (r *SessionRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]models.ConsultSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.ConsultSession, 0)
	for rows.Next() {
		session, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) scanRow(row rowScanner) (*models.ConsultSession, error) {
	var session models.ConsultSession
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.LawyerID,
		&session.Type,
		&session.RatePerMinute,
		&session.Status,
		&session.StartedAt,
		&session.EndedAt,
		&session.EndReason,
		&session.TotalAmount,
		&session.Commission,
		&session.LawyerEarning,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
