package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxDeposit            TransactionType = "deposit"
	TxWithdrawal         TransactionType = "withdrawal"
	TxTournamentFee      TransactionType = "tournament_fee"
	TxPrizePayout        TransactionType = "prize_payout"
	TxBonus              TransactionType = "bonus"
	TxReferral           TransactionType = "referral"
	TxRefund             TransactionType = "refund"
	TxWithdrawalReversal TransactionType = "withdrawal_reversal"
)

// IsDebit reports whether the type moves money out of the wallet.
func (t TransactionType) IsDebit() bool {
	return t == TxWithdrawal || t == TxTournamentFee
}

func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxTournamentFee, TxPrizePayout, TxBonus, TxReferral, TxRefund, TxWithdrawalReversal:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Transaction is one ledger row. Amount is always positive; the direction
// comes from Type.
type Transaction struct {
	ID           string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string            `gorm:"not null;index" json:"user_id"`
	Type         TransactionType   `gorm:"type:varchar(32);not null;index" json:"type"`
	Amount       decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Status       TransactionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	ReferenceID  string            `gorm:"index" json:"reference_id,omitempty"`
	BalanceAfter decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"balance_after"`
	UpiID        string            `json:"upi_id,omitempty"`
	Notes        string            `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy  string            `json:"processed_by,omitempty"`
	ProcessedAt  *time.Time        `json:"processed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

// Delta is the signed effect on the wallet balance.
func (t *Transaction) Delta() decimal.Decimal {
	if t.Type.IsDebit() {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Posted reports whether the row moved the balance. Pending withdrawals hold
// reserved funds; a failed withdrawal keeps its debit and is offset by a
// withdrawal_reversal credit.
func (t *Transaction) Posted() bool {
	switch t.Status {
	case TxCompleted, TxPending, TxFailed:
		return true
	}
	return false
}
