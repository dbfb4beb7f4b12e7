package services

import (
	"context"
	"errors"
	"testing"

	"firefight-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalPreconditions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	t.Run("kyc not approved", func(t *testing.T) {
		e.newUser(t, "nokyc", "500")
		// KYC is checked before the amount is even compared with the minimum.
		_, err := e.Withdrawals.Request(ctx, "nokyc", amount("10"), "nokyc@upi")
		assert.True(t, errors.Is(err, ErrKycNotApproved))
		assertAmount(t, "500", e.balance(t, "nokyc"))
	})

	t.Run("below minimum", func(t *testing.T) {
		e.newUser(t, "small", "500")
		e.approveKyc(t, "small")
		_, err := e.Withdrawals.Request(ctx, "small", amount("99.99"), "small@upi")
		assert.True(t, errors.Is(err, ErrBelowMinimum))
		assert.Contains(t, err.Error(), "₹100.00")
	})

	t.Run("insufficient balance", func(t *testing.T) {
		e.newUser(t, "poor", "150")
		e.approveKyc(t, "poor")
		_, err := e.Withdrawals.Request(ctx, "poor", amount("200"), "poor@upi")
		assert.True(t, errors.Is(err, ErrInsufficientBalance))
		assertAmount(t, "150", e.balance(t, "poor"))
	})

	t.Run("bad upi id", func(t *testing.T) {
		e.newUser(t, "typo", "500")
		e.approveKyc(t, "typo")
		_, err := e.Withdrawals.Request(ctx, "typo", amount("100"), "not-a-vpa")
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("no upi id anywhere", func(t *testing.T) {
		e.newUser(t, "noupi", "500")
		e.approveKyc(t, "noupi")
		_, err := e.Withdrawals.Request(ctx, "noupi", amount("100"), "")
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
		assertAmount(t, "500", e.balance(t, "noupi"))
	})
}

func TestWithdrawalReservesFundsAndUsesSavedUpi(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "500")
	e.approveKyc(t, "u1")
	_, err := e.Users.SetUpiID(ctx, "u1", "player.one@okaxis")
	require.NoError(t, err)

	w, err := e.Withdrawals.Request(ctx, "u1", amount("200"), "")
	require.NoError(t, err)
	assert.Equal(t, models.TxPending, w.Status)
	assert.Equal(t, "player.one@okaxis", w.UpiID)
	assertAmount(t, "300", e.balance(t, "u1"))
	assertConsistent(t, e, "u1")

	list, err := e.Withdrawals.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, w.ID, list[0].ID)
}

func TestProcessWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("approve completes without moving money", func(t *testing.T) {
		e := newTestEnv(t)
		e.newUser(t, "u1", "500")
		e.approveKyc(t, "u1")
		w, err := e.Withdrawals.Request(ctx, "u1", amount("200"), "u1@upi")
		require.NoError(t, err)

		done, err := e.Withdrawals.Process(ctx, w.ID, "admin", true, "")
		require.NoError(t, err)
		assert.Equal(t, models.TxCompleted, done.Status)
		assert.Equal(t, "admin", done.ProcessedBy)
		assertAmount(t, "300", e.balance(t, "u1"))

		_, err = e.Withdrawals.Process(ctx, w.ID, "admin", true, "")
		assert.True(t, errors.Is(err, ErrAlreadyProcessed))
		assertConsistent(t, e, "u1")
	})

	t.Run("reject restores balance", func(t *testing.T) {
		e := newTestEnv(t)
		e.newUser(t, "u1", "500")
		e.approveKyc(t, "u1")
		w, err := e.Withdrawals.Request(ctx, "u1", amount("200"), "u1@upi")
		require.NoError(t, err)

		_, err = e.Withdrawals.Process(ctx, w.ID, "admin", false, " ")
		assert.True(t, errors.Is(err, ErrReasonRequired))

		failed, err := e.Withdrawals.Process(ctx, w.ID, "admin", false, "UPI id does not exist")
		require.NoError(t, err)
		assert.Equal(t, models.TxFailed, failed.Status)
		assertAmount(t, "500", e.balance(t, "u1"))
		assertConsistent(t, e, "u1")

		reversals, _, err := e.Ledger.History(ctx, "u1", HistoryFilter{Type: models.TxWithdrawalReversal})
		require.NoError(t, err)
		require.Len(t, reversals, 1)
		assert.Equal(t, w.ID, reversals[0].ReferenceID)

		_, err = e.Withdrawals.Process(ctx, w.ID, "admin", false, "again")
		assert.True(t, errors.Is(err, ErrAlreadyProcessed))
		assertAmount(t, "500", e.balance(t, "u1"))
	})

	t.Run("only withdrawals can be processed", func(t *testing.T) {
		e := newTestEnv(t)
		e.newUser(t, "u1", "0")
		dep, err := e.Ledger.Credit(ctx, "u1", amount("50"), models.TxDeposit, "pay")
		require.NoError(t, err)

		_, err = e.Withdrawals.Process(ctx, dep.ID, "admin", true, "")
		var nf *NotFoundError
		assert.True(t, errors.As(err, &nf))
	})
}

func TestWithdrawalMinimumDefaults(t *testing.T) {
	s := NewWithdrawalService(nil, nil, amount("0"))
	assertAmount(t, "100", s.MinAmount)
	s = NewWithdrawalService(nil, nil, amount("50"))
	assertAmount(t, "50", s.MinAmount)
}
