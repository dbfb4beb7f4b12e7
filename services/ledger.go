package services

import (
	"context"
	"fmt"
	"log"

	"firefight-platform/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns every wallet balance mutation. Each credit or debit
// appends exactly one Transaction row in the same DB transaction that
// updates users.wallet_balance.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Entry describes one ledger movement.
type Entry struct {
	UserID      string
	Amount      decimal.Decimal
	Type        models.TransactionType
	ReferenceID string
	// Status defaults to completed.
	Status models.TransactionStatus
	UpiID  string
	Notes  string
}

func (e *Entry) validate() error {
	if e.UserID == "" {
		return invalid("user_id", "required")
	}
	if !e.Type.Valid() {
		return invalid("type", "unknown transaction type")
	}
	if !e.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if e.Amount.Exponent() < -2 {
		return invalid("amount", "at most two decimal places")
	}
	return nil
}

// Credit adds amount to the user's wallet.
func (s *LedgerService) Credit(ctx context.Context, userID string, amount decimal.Decimal, txType models.TransactionType, referenceID string) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.CreditTx(tx, Entry{UserID: userID, Amount: amount, Type: txType, ReferenceID: referenceID})
		return err
	})
	return out, err
}

// Debit removes amount from the user's wallet or fails with
// ErrInsufficientBalance, leaving nothing written.
func (s *LedgerService) Debit(ctx context.Context, userID string, amount decimal.Decimal, txType models.TransactionType, referenceID string) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.DebitTx(tx, Entry{UserID: userID, Amount: amount, Type: txType, ReferenceID: referenceID})
		return err
	})
	return out, err
}

// CreditTx runs a credit inside the caller's transaction.
func (s *LedgerService) CreditTx(tx *gorm.DB, e Entry) (*models.Transaction, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if e.Type.IsDebit() {
		return nil, invalid("type", fmt.Sprintf("%s is not a credit type", e.Type))
	}
	user, err := lockUser(tx, e.UserID)
	if err != nil {
		return nil, err
	}
	return s.apply(tx, user, e, user.WalletBalance.Add(e.Amount))
}

// DebitTx runs a debit inside the caller's transaction. The user row is
// locked, so the balance check and the write cannot interleave with another
// mutation of the same wallet.
func (s *LedgerService) DebitTx(tx *gorm.DB, e Entry) (*models.Transaction, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if !e.Type.IsDebit() {
		return nil, invalid("type", fmt.Sprintf("%s is not a debit type", e.Type))
	}
	user, err := lockUser(tx, e.UserID)
	if err != nil {
		return nil, err
	}
	next := user.WalletBalance.Sub(e.Amount)
	if next.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	return s.apply(tx, user, e, next)
}

func (s *LedgerService) apply(tx *gorm.DB, user *models.User, e Entry, balance decimal.Decimal) (*models.Transaction, error) {
	status := e.Status
	if status == "" {
		status = models.TxCompleted
	}
	row := &models.Transaction{
		UserID:       e.UserID,
		Type:         e.Type,
		Amount:       e.Amount,
		Status:       status,
		ReferenceID:  e.ReferenceID,
		BalanceAfter: balance,
		UpiID:        e.UpiID,
		Notes:        e.Notes,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	if err := tx.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("wallet_balance", balance).Error; err != nil {
		return nil, fmt.Errorf("update wallet balance: %w", err)
	}
	user.WalletBalance = balance
	return row, nil
}

func lockUser(tx *gorm.DB, userID string) (*models.User, error) {
	var u models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&u, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	return &u, nil
}

// Balance returns the current wallet balance.
func (s *LedgerService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Select("id", "wallet_balance").First(&u, "id = ?", userID).Error; err != nil {
		return decimal.Zero, notFound(err, "user", userID)
	}
	return u.WalletBalance, nil
}

// HistoryFilter narrows the transaction read model.
type HistoryFilter struct {
	Type   models.TransactionType
	Status models.TransactionStatus
	Page   int
	Size   int
}

// History lists a user's transactions, newest first.
func (s *LedgerService) History(ctx context.Context, userID string, f HistoryFilter) ([]models.Transaction, int64, error) {
	page, size := normalizePage(f.Page, f.Size)
	q := s.DB.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	var txs []models.Transaction
	if err := q.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&txs).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}

// Reconciliation compares the stored balance with the ledger.
type Reconciliation struct {
	UserID     string          `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
}

// Reconcile recomputes a user's balance from posted transactions.
func (s *LedgerService) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	db := s.DB.WithContext(ctx)
	var u models.User
	if err := db.First(&u, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	var txs []models.Transaction
	if err := db.Where("user_id = ?", userID).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return reconcile(&u, txs), nil
}

func reconcile(u *models.User, txs []models.Transaction) *Reconciliation {
	sum := decimal.Zero
	for i := range txs {
		if txs[i].Posted() {
			sum = sum.Add(txs[i].Delta())
		}
	}
	drift := u.WalletBalance.Sub(sum)
	return &Reconciliation{
		UserID:     u.ID,
		Balance:    u.WalletBalance,
		LedgerSum:  sum,
		Drift:      drift,
		Consistent: drift.IsZero(),
	}
}

// ReconcileAll walks every user and returns the inconsistent ones.
func (s *LedgerService) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	var drifted []Reconciliation
	var users []models.User
	res := s.DB.WithContext(ctx).FindInBatches(&users, 200, func(batch *gorm.DB, _ int) error {
		for i := range users {
			var txs []models.Transaction
			if err := s.DB.WithContext(ctx).Where("user_id = ?", users[i].ID).Find(&txs).Error; err != nil {
				return err
			}
			if r := reconcile(&users[i], txs); !r.Consistent {
				log.Printf("⚠️ [LEDGER] drift for user %s: balance=%s ledger=%s", r.UserID, r.Balance, r.LedgerSum)
				drifted = append(drifted, *r)
			}
		}
		return nil
	})
	if res.Error != nil {
		return nil, fmt.Errorf("reconcile users: %w", res.Error)
	}
	return drifted, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
