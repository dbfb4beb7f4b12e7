package services

import (
	"context"
	"errors"
	"testing"

	"firefight-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCreditAndDebit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "0")

	tx, err := e.Ledger.Credit(ctx, "u1", amount("250.50"), models.TxDeposit, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.TxCompleted, tx.Status)
	assertAmount(t, "250.50", tx.BalanceAfter)

	tx, err = e.Ledger.Debit(ctx, "u1", amount("50.25"), models.TxTournamentFee, "t-1")
	require.NoError(t, err)
	assertAmount(t, "200.25", tx.BalanceAfter)
	assertAmount(t, "200.25", e.balance(t, "u1"))
	assertConsistent(t, e, "u1")
}

func TestLedgerDebitInsufficientLeavesNothing(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "150")

	_, err := e.Ledger.Debit(ctx, "u1", amount("200"), models.TxWithdrawal, "")
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assertAmount(t, "150", e.balance(t, "u1"))

	_, total, err := e.Ledger.History(ctx, "u1", HistoryFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "only the seed deposit")
}

func TestLedgerRejectsMalformedEntries(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "100")

	cases := []struct {
		name string
		run  func() error
	}{
		{"zero amount", func() error {
			_, err := e.Ledger.Credit(ctx, "u1", amount("0"), models.TxDeposit, "")
			return err
		}},
		{"negative amount", func() error {
			_, err := e.Ledger.Credit(ctx, "u1", amount("-5"), models.TxDeposit, "")
			return err
		}},
		{"three decimals", func() error {
			_, err := e.Ledger.Credit(ctx, "u1", amount("1.005"), models.TxDeposit, "")
			return err
		}},
		{"debit type as credit", func() error {
			_, err := e.Ledger.Credit(ctx, "u1", amount("5"), models.TxWithdrawal, "")
			return err
		}},
		{"credit type as debit", func() error {
			_, err := e.Ledger.Debit(ctx, "u1", amount("5"), models.TxBonus, "")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var verr *ValidationError
			assert.True(t, errors.As(tc.run(), &verr))
		})
	}
	assertAmount(t, "100", e.balance(t, "u1"))
}

func TestLedgerUnknownUser(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.Ledger.Credit(context.Background(), "ghost", amount("10"), models.TxBonus, "")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "user", nf.Entity)
}

func TestLedgerHistoryFiltersAndPages(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "0")
	for i := 0; i < 5; i++ {
		_, err := e.Ledger.Credit(ctx, "u1", amount("10"), models.TxBonus, "")
		require.NoError(t, err)
	}
	_, err := e.Ledger.Debit(ctx, "u1", amount("5"), models.TxTournamentFee, "t-1")
	require.NoError(t, err)

	txs, total, err := e.Ledger.History(ctx, "u1", HistoryFilter{Type: models.TxBonus, Size: 2, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, txs, 2)

	txs, total, err = e.Ledger.History(ctx, "u1", HistoryFilter{Type: models.TxTournamentFee})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "t-1", txs[0].ReferenceID)
}

func TestReconcileDetectsDrift(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "100")
	e.newUser(t, "u2", "40")

	// A write that bypasses the ledger.
	require.NoError(t, e.DB.Model(&models.User{}).Where("id = ?", "u1").Update("wallet_balance", "130").Error)

	r, err := e.Ledger.Reconcile(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, r.Consistent)
	assertAmount(t, "30", r.Drift)

	drifted, err := e.Ledger.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, drifted, 1)
	assert.Equal(t, "u1", drifted[0].UserID)
}

func TestTransactionPostedStatuses(t *testing.T) {
	for status, posted := range map[models.TransactionStatus]bool{
		models.TxCompleted: true,
		models.TxPending:   true,
		models.TxFailed:    true,
		models.TxCancelled: false,
	} {
		tx := models.Transaction{Status: status}
		assert.Equal(t, posted, tx.Posted(), status)
	}
}
