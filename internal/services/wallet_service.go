package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
)

const (
	reasonRecharge       = "recharge"
	reasonConsultation   = "consultation"
	reasonConsultEarning = "consultation_earning"
)

type WalletService struct {
	db         *pgxpool.Pool
	walletRepo *repository.WalletRepository
}

func NewWalletService(db *pgxpool.Pool, walletRepo *repository.WalletRepository) *WalletService {
	return &WalletService{
		db:         db,
		walletRepo: walletRepo,
	}
}

func (s *WalletService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.walletRepo.ListTransactions(ctx, account.ID)
}

// Recharge credits the user's wallet after the external payment rail has
// confirmed the amount, and returns the new balance.
func (s *WalletService) Recharge(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txWalletRepo := repository.NewWalletRepository(tx)
	account, err := creditAccount(ctx, txWalletRepo, userID, amount, reasonRecharge, uuid.New())
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// creditAccount appends a CREDIT entry and bumps the cached balance. It takes
// the per-account row lock, so concurrent credits and debits on the same
// account serialize; the caller must be inside a transaction.
func creditAccount(
	ctx context.Context,
	walletRepo *repository.WalletRepository,
	userID int64,
	amount decimal.Decimal,
	reason string,
	reference uuid.UUID,
) (*models.WalletAccount, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidInput
	}

	account, err := walletRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	account.Balance = account.Balance.Add(amount)
	if err := walletRepo.SetBalance(ctx, account.ID, account.Balance); err != nil {
		return nil, err
	}
	if _, err := walletRepo.InsertTransaction(ctx, repository.InsertTransactionInput{
		AccountID: account.ID,
		Type:      models.TransactionCredit,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
	}); err != nil {
		return nil, err
	}

	return account, nil
}

// debitAccount appends a DEBIT entry. A debit that would push the balance
// below zero is rejected whole with ErrInsufficientFunds; there is no partial
// debit.
func debitAccount(
	ctx context.Context,
	walletRepo *repository.WalletRepository,
	userID int64,
	amount decimal.Decimal,
	reason string,
	reference uuid.UUID,
) (*models.WalletAccount, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidInput
	}

	account, err := walletRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(account.Balance) {
		return nil, ErrInsufficientFunds
	}

	account.Balance = account.Balance.Sub(amount)
	if err := walletRepo.SetBalance(ctx, account.ID, account.Balance); err != nil {
		return nil, err
	}
	if _, err := walletRepo.InsertTransaction(ctx, repository.InsertTransactionInput{
		AccountID: account.ID,
		Type:      models.TransactionDebit,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
	}); err != nil {
		return nil, err
	}

	return account, nil
}
