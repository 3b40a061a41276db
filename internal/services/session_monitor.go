package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
)

// SessionMonitor sweeps live sessions on a fixed interval. It force-ends
// active sessions whose user cannot cover the next tick of billing, and
// auto-declines requests the lawyer never answered. Because the sweep reads
// everything back from the database each tick, a restarted process resumes
// watching sessions started before it came up.
type SessionMonitor struct {
	db             *pgxpool.Pool
	sessionRepo    *repository.SessionRepository
	walletRepo     *repository.WalletRepository
	consultService *ConsultService
	interval       time.Duration
	acceptTimeout  time.Duration
}

func NewSessionMonitor(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	walletRepo *repository.WalletRepository,
	consultService *ConsultService,
	interval time.Duration,
	acceptTimeout time.Duration,
) *SessionMonitor {
	return &SessionMonitor{
		db:             db,
		sessionRepo:    sessionRepo,
		walletRepo:     walletRepo,
		consultService: consultService,
		interval:       interval,
		acceptTimeout:  acceptTimeout,
	}
}

// Run blocks until ctx is cancelled. Call it in its own goroutine.
func (m *SessionMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Printf("session monitor running, sweep every %s", m.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("session monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *SessionMonitor) sweep(ctx context.Context) {
	m.sweepActive(ctx)
	m.sweepRequested(ctx)
}

// sweepActive force-ends any active session whose projected cost at the next
// sweep exceeds the user's balance. Projecting one interval ahead means the
// session is cut before the unaffordable minute accrues, not after.
func (m *SessionMonitor) sweepActive(ctx context.Context) {
	sessions, err := m.sessionRepo.ListActive(ctx)
	if err != nil {
		log.Printf("session monitor: list active: %v", err)
		return
	}

	now := time.Now().UTC()
	for i := range sessions {
		session := &sessions[i]
		if session.StartedAt == nil {
			continue
		}

		account, err := m.walletRepo.GetByUserID(ctx, session.UserID)
		if err != nil {
			log.Printf("session monitor: wallet for user %d: %v", session.UserID, err)
			continue
		}

		projected := ConsultCost(
			session.RatePerMinute,
			ElapsedSeconds(*session.StartedAt, now.Add(m.interval)),
		)
		if !projected.GreaterThan(account.Balance) {
			continue
		}

		if _, err := m.consultService.ForceEndSession(ctx, session.ID); err != nil {
			// A participant ending at the same moment wins the guarded
			// update; nothing to do for this session.
			if errors.Is(err, ErrSessionNotActive) {
				continue
			}
			log.Printf("session monitor: force end %s: %v", session.ID, err)
			continue
		}
		log.Printf("session monitor: force ended %s, balance exhausted", session.ID)
	}
}

// sweepRequested declines requests still unanswered past the accept timeout.
func (m *SessionMonitor) sweepRequested(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.acceptTimeout)
	sessions, err := m.sessionRepo.ListRequestedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("session monitor: list requested: %v", err)
		return
	}

	for i := range sessions {
		session := &sessions[i]
		if session.Status != models.SessionRequested {
			continue
		}
		if _, err := m.consultService.ExpireRequested(ctx, session.ID); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			log.Printf("session monitor: expire %s: %v", session.ID, err)
		}
	}
}
