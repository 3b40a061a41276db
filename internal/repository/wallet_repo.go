package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
)

type InsertTransactionInput struct {
	AccountID int64
	Type      string
	Amount    decimal.Decimal
	Reason    string
	Reference uuid.UUID
}

type WalletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) CreateAccount(ctx context.Context, userID int64) (*models.WalletAccount, error) {
	query := `
		INSERT INTO wallet_accounts (user_id, balance)
		VALUES ($1, 0)
		RETURNING id, user_id, balance, created_at, updated_at
	`
	return r.scanAccount(ctx, query, userID)
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.WalletAccount, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
	`
	return r.scanAccount(ctx, query, userID)
}

// GetByUserIDForUpdate takes the row lock that serializes all balance
// mutations for one account. Callers must be inside a transaction.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.WalletAccount, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
		FOR UPDATE
	`
	return r.scanAccount(ctx, query, userID)
}

// SetBalance rewrites the cached balance. Only the ledger code paths that
// hold the FOR UPDATE lock and append a matching transaction may call it.
func (r *WalletRepository) SetBalance(
	ctx context.Context,
	accountID int64,
	balance decimal.Decimal,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE wallet_accounts
		SET balance = $2, updated_at = NOW()
		WHERE id = $1
	`, accountID, balance)
	return err
}

func (r *WalletRepository) InsertTransaction(
	ctx context.Context,
	input InsertTransactionInput,
) (*models.Transaction, error) {
	query := `
		INSERT INTO wallet_transactions (account_id, type, amount, reason, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, account_id, type, amount, reason, reference, created_at
	`
	var tx models.Transaction
	err := r.db.QueryRow(ctx, query, input.AccountID, input.Type, input.Amount, input.Reason, input.Reference).Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Type,
		&tx.Amount,
		&tx.Reason,
		&tx.Reference,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *WalletRepository) ListTransactions(
	ctx context.Context,
	accountID int64,
) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, type, amount, reason, reference, created_at
		FROM wallet_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Type,
			&tx.Amount,
			&tx.Reason,
			&tx.Reference,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

// SumTransactions recomputes a balance from the ledger, for reconciliation
// against the cached account balance.
func (r *WalletRepository) SumTransactions(
	ctx context.Context,
	accountID int64,
) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount ELSE -amount END), 0)
		FROM wallet_transactions
		WHERE account_id = $1
	`
	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *WalletRepository) scanAccount(
	ctx context.Context,
	query string,
	args ...any,
) (*models.WalletAccount, error) {
	var account models.WalletAccount
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&account.ID,
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
