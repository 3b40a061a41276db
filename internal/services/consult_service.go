package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLawyerNotFound    = errors.New("lawyer not found")
	ErrLawyerUnavailable = errors.New("lawyer unavailable")
	ErrSessionNotActive  = errors.New("session not active")
	ErrSessionInProgress = errors.New("another session in progress")
	ErrSessionNotEnded   = errors.New("session not ended")
	ErrReviewExists      = errors.New("review already exists")
)

// Socket events the core emits towards session participants.
const (
	EventConsultRequested  = "CONSULT_REQUESTED"
	EventConsultAccepted   = "CONSULT_ACCEPTED"
	EventConsultDeclined   = "CONSULT_DECLINED"
	EventConsultCancelled  = "CONSULT_CANCELLED"
	EventSessionEnded      = "SESSION_ENDED"
	EventSessionForceEnded = "SESSION_FORCE_ENDED"
	EventReceiveMessage    = "RECEIVE_MESSAGE"
)

const (
	endReasonInsufficientFunds = "insufficient_funds"
	endReasonAcceptTimeout     = "timeout"
)

// Notifier delivers core events to connected participants. Delivery is
// best-effort and happens strictly after the database commit; a missed
// notification must never undo a settled transaction.
type Notifier interface {
	NotifyUser(userID int64, event string, payload any)
	NotifySession(sessionID uuid.UUID, event string, payload any)
}

type lawyerProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.LawyerProfile, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type ConsultService struct {
	db                *pgxpool.Pool
	sessionRepo       *repository.SessionRepository
	walletRepo        *repository.WalletRepository
	userRepo          userReader
	lawyerProfileRepo lawyerProfileReader
	notifier          Notifier
	commissionPercent decimal.Decimal
	minStartBalance   decimal.Decimal
}

func NewConsultService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	walletRepo *repository.WalletRepository,
	userRepo userReader,
	lawyerProfileRepo lawyerProfileReader,
	notifier Notifier,
	commissionPercent decimal.Decimal,
	minStartBalance decimal.Decimal,
) *ConsultService {
	return &ConsultService{
		db:                db,
		sessionRepo:       sessionRepo,
		walletRepo:        walletRepo,
		userRepo:          userRepo,
		lawyerProfileRepo: lawyerProfileRepo,
		notifier:          notifier,
		commissionPercent: commissionPercent,
		minStartBalance:   minStartBalance,
	}
}

// StartSession creates a REQUESTED session with the lawyer's current rate
// snapshotted, after checking the lawyer is reachable and the user can afford
// a consultation at all.
func (s *ConsultService) StartSession(
	ctx context.Context,
	userID int64,
	lawyerID int64,
	consultType string,
) (*models.ConsultSession, error) {
	if consultType != models.ConsultTypeChat && consultType != models.ConsultTypeCall {
		return nil, ErrInvalidInput
	}
	if lawyerID <= 0 || lawyerID == userID {
		return nil, ErrInvalidInput
	}

	lawyer, err := s.userRepo.GetByID(ctx, lawyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLawyerNotFound
		}
		return nil, err
	}
	if lawyer.Role != "lawyer" {
		return nil, ErrInvalidInput
	}

	profile, err := s.lawyerProfileRepo.GetByUserID(ctx, lawyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLawyerNotFound
		}
		return nil, err
	}
	if !profile.Consultable() {
		return nil, ErrLawyerUnavailable
	}

	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(s.minStartBalance) {
		return nil, ErrInsufficientFunds
	}

	if _, err := s.sessionRepo.GetLiveByParticipant(ctx, userID); err == nil {
		return nil, ErrSessionInProgress
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.sessionRepo.GetLiveByParticipant(ctx, lawyerID); err == nil {
		return nil, ErrLawyerUnavailable
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	session, err := s.sessionRepo.Create(ctx, repository.CreateSessionInput{
		UserID:        userID,
		LawyerID:      lawyerID,
		Type:          consultType,
		RatePerMinute: *profile.RatePerMinute,
	})
	if err != nil {
		// The partial unique indexes on the live statuses close the race the
		// reads above leave open, one per participant side.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "idx_consult_sessions_lawyer_live" {
				return nil, ErrLawyerUnavailable
			}
			return nil, ErrSessionInProgress
		}
		return nil, err
	}

	s.notifier.NotifyUser(lawyerID, EventConsultRequested, session)
	return session, nil
}

// AcceptSession moves a REQUESTED session through ACCEPTED into ACTIVE and
// stamps billing start. Only the requested lawyer may accept.
func (s *ConsultService) AcceptSession(
	ctx context.Context,
	sessionID uuid.UUID,
	lawyerID int64,
) (*models.ConsultSession, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.LawyerID != lawyerID {
		return nil, ErrForbidden
	}

	if _, err := txSessionRepo.UpdateStatusIfCurrent(
		ctx, sessionID, models.SessionRequested, models.SessionAccepted,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	active, err := txSessionRepo.Activate(ctx, sessionID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(active.UserID, EventConsultAccepted, active)
	s.notifier.NotifySession(active.ID, EventConsultAccepted, active)
	return active, nil
}

// DeclineSession terminates a REQUESTED session with no financial effect.
func (s *ConsultService) DeclineSession(
	ctx context.Context,
	sessionID uuid.UUID,
	lawyerID int64,
	reason string,
) (*models.ConsultSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.LawyerID != lawyerID {
		return nil, ErrForbidden
	}

	declined, err := s.terminateRequested(ctx, sessionID, models.SessionDeclined, reason)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(declined.UserID, EventConsultDeclined, declineNotice(declined))
	return declined, nil
}

// CancelSession lets the requesting user withdraw before the lawyer responds.
func (s *ConsultService) CancelSession(
	ctx context.Context,
	sessionID uuid.UUID,
	userID int64,
) (*models.ConsultSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}

	cancelled, err := s.terminateRequested(ctx, sessionID, models.SessionCancelled, "")
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(cancelled.LawyerID, EventConsultCancelled, cancelled)
	return cancelled, nil
}

// EndSession settles an ACTIVE session at the requester's instant. Either
// participant may end; anything else is ErrForbidden.
func (s *ConsultService) EndSession(
	ctx context.Context,
	sessionID uuid.UUID,
	requesterID int64,
) (*models.ConsultationSummary, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != requesterID && session.LawyerID != requesterID {
		return nil, ErrForbidden
	}

	summary, err := s.settle(ctx, sessionID, models.SessionEnded, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifySession(sessionID, EventSessionEnded, summary)
	s.notifier.NotifyUser(session.UserID, EventSessionEnded, summary)
	s.notifier.NotifyUser(session.LawyerID, EventSessionEnded, summary)
	return summary, nil
}

// ForceEndSession is the balance-exhaustion path. It runs the same settlement
// as EndSession but lands in FORCE_ENDED so clients can tell "ran out of
// funds" from a normal completion.
func (s *ConsultService) ForceEndSession(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.ConsultationSummary, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reason := endReasonInsufficientFunds
	summary, err := s.settle(ctx, sessionID, models.SessionForceEnded, &reason)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifySession(sessionID, EventSessionForceEnded, summary)
	s.notifier.NotifyUser(session.UserID, EventSessionForceEnded, summary)
	s.notifier.NotifyUser(session.LawyerID, EventSessionForceEnded, summary)
	return summary, nil
}

// ExpireRequested auto-declines a session whose lawyer never responded.
func (s *ConsultService) ExpireRequested(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.ConsultSession, error) {
	expired, err := s.terminateRequested(ctx, sessionID, models.SessionDeclined, endReasonAcceptTimeout)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(expired.UserID, EventConsultDeclined, declineNotice(expired))
	return expired, nil
}

// LiveSession returns the participant's current non-terminal session, for
// client resync after reconnect.
func (s *ConsultService) LiveSession(
	ctx context.Context,
	participantID int64,
) (*models.ConsultSession, error) {
	return s.sessionRepo.GetLiveByParticipant(ctx, participantID)
}

func (s *ConsultService) ListSessions(
	ctx context.Context,
	participantID int64,
) ([]models.ConsultSession, error) {
	return s.sessionRepo.ListByParticipant(ctx, participantID)
}

func (s *ConsultService) terminateRequested(
	ctx context.Context,
	sessionID uuid.UUID,
	toStatus string,
	reason string,
) (*models.ConsultSession, error) {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	session, err := s.sessionRepo.Terminate(
		ctx, sessionID, models.SessionRequested, toStatus, reasonPtr,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return session, nil
}

// settle is the single settlement path shared by EndSession and
// ForceEndSession. The guarded ACTIVE→terminal update means that when an end
// request and the force-end monitor race, exactly one of them commits; the
// loser observes the row already out of ACTIVE and reports
// ErrSessionNotActive.
func (s *ConsultService) settle(
	ctx context.Context,
	sessionID uuid.UUID,
	toStatus string,
	reason *string,
) (*models.ConsultationSummary, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txWalletRepo := repository.NewWalletRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive || session.StartedAt == nil {
		return nil, ErrSessionNotActive
	}

	// Serialize against recharges racing the settlement on the same wallet.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", session.UserID); err != nil {
		return nil, err
	}

	durationSeconds := ElapsedSeconds(*session.StartedAt, now)
	total := ConsultCost(session.RatePerMinute, durationSeconds)

	account, err := txWalletRepo.GetByUserIDForUpdate(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	// The ledger never goes negative: cap the charge at the available
	// balance. The monitor force-ends before a whole unaffordable minute
	// accrues, so the cap only bites in the window between its ticks.
	charge := total
	if charge.GreaterThan(account.Balance) {
		log.Printf(
			"settlement shortfall for session %s: accrued %s, charging %s (needs reconciliation)",
			session.ID, total, account.Balance,
		)
		charge = account.Balance
	}

	commission, lawyerEarning := SplitAmount(charge, s.commissionPercent)

	remaining := account.Balance
	if charge.IsPositive() {
		debited, err := debitAccount(
			ctx, txWalletRepo, session.UserID, charge, reasonConsultation, session.ID,
		)
		if err != nil {
			return nil, err
		}
		remaining = debited.Balance

		if lawyerEarning.IsPositive() {
			if _, err := creditAccount(
				ctx, txWalletRepo, session.LawyerID, lawyerEarning, reasonConsultEarning, session.ID,
			); err != nil {
				return nil, err
			}
		}
	}

	if _, err := txSessionRepo.Settle(ctx, repository.SettleSessionInput{
		SessionID:     sessionID,
		FromStatus:    models.SessionActive,
		ToStatus:      toStatus,
		EndedAt:       now,
		TotalAmount:   charge,
		Commission:    commission,
		LawyerEarning: lawyerEarning,
		Reason:        reason,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotActive
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &models.ConsultationSummary{
		SessionID:        sessionID,
		TotalAmount:      charge,
		DurationSeconds:  durationSeconds,
		Commission:       commission,
		LawyerEarning:    lawyerEarning,
		RemainingBalance: remaining,
	}, nil
}

type declinePayload struct {
	SessionID uuid.UUID `json:"sessionId"`
	Reason    string    `json:"reason"`
}

func declineNotice(session *models.ConsultSession) declinePayload {
	payload := declinePayload{SessionID: session.ID}
	if session.EndReason != nil {
		payload.Reason = *session.EndReason
	}
	return payload
}
