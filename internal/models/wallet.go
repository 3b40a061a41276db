package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionCredit = "CREDIT"
	TransactionDebit  = "DEBIT"
)

type WalletAccount struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is one entry in the append-only wallet ledger. Entries are never
// updated or deleted; the account balance equals the sum of its entries.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Reference uuid.UUID       `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}
