package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"firefight-platform/models"
	"firefight-platform/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultWithdrawalMinimum applies when no minimum is configured.
var DefaultWithdrawalMinimum = decimal.NewFromInt(100)

// WithdrawalService reserves payout funds at request time and settles them
// on admin review.
type WithdrawalService struct {
	DB        *gorm.DB
	Ledger    *LedgerService
	MinAmount decimal.Decimal
}

func NewWithdrawalService(db *gorm.DB, ledger *LedgerService, minAmount decimal.Decimal) *WithdrawalService {
	if !minAmount.IsPositive() {
		minAmount = DefaultWithdrawalMinimum
	}
	return &WithdrawalService{DB: db, Ledger: ledger, MinAmount: minAmount}
}

// Request checks KYC, the minimum and the balance, in that order, and debits
// the amount as a pending withdrawal. upiID falls back to the user's saved id.
func (s *WithdrawalService) Request(ctx context.Context, userID string, amount decimal.Decimal, upiID string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	upiID = strings.TrimSpace(upiID)
	if upiID != "" && !ValidUpiID(upiID) {
		return nil, invalid("upi_id", "must look like name@bank")
	}

	var out *models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if u.KycStatus != models.KycStatusApproved {
			return ErrKycNotApproved
		}
		if amount.LessThan(s.MinAmount) {
			return fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, utils.FormatINR(s.MinAmount))
		}
		if upiID == "" {
			upiID = u.UpiID
		}
		if upiID == "" {
			return invalid("upi_id", "required")
		}
		out, err = s.Ledger.DebitTx(tx, Entry{
			UserID: userID,
			Amount: amount,
			Type:   models.TxWithdrawal,
			Status: models.TxPending,
			UpiID:  upiID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("💸 [WITHDRAWAL] %s requested %s to %s (tx %s)", userID, utils.FormatINR(amount), upiID, out.ID)
	return out, nil
}

// Process settles a pending withdrawal exactly once. Approval completes it;
// rejection marks it failed and credits a withdrawal_reversal.
func (s *WithdrawalService) Process(ctx context.Context, transactionID, adminID string, approve bool, notes string) (*models.Transaction, error) {
	notes = strings.TrimSpace(notes)
	if !approve && notes == "" {
		return nil, ErrReasonRequired
	}

	var w models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&w, "id = ? AND type = ?", transactionID, models.TxWithdrawal).Error; err != nil {
			return notFound(err, "withdrawal", transactionID)
		}
		if w.Status != models.TxPending {
			return ErrAlreadyProcessed
		}

		now := time.Now()
		w.ProcessedBy, w.ProcessedAt = adminID, &now
		if notes != "" {
			w.Notes = notes
		}
		if approve {
			w.Status = models.TxCompleted
		} else {
			w.Status = models.TxFailed
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", w.ID).Updates(map[string]interface{}{
			"status":       w.Status,
			"notes":        w.Notes,
			"processed_by": adminID,
			"processed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update withdrawal: %w", err)
		}
		if approve {
			return nil
		}
		_, err := s.Ledger.CreditTx(tx, Entry{
			UserID:      w.UserID,
			Amount:      w.Amount,
			Type:        models.TxWithdrawalReversal,
			ReferenceID: w.ID,
			Notes:       notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("💸 [WITHDRAWAL] %s %s by %s", w.ID, w.Status, adminID)
	return &w, nil
}

// ForUser lists the user's withdrawals, newest first.
func (s *WithdrawalService) ForUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var ws []models.Transaction
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, models.TxWithdrawal).
		Order("created_at DESC").
		Find(&ws).Error; err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return ws, nil
}
