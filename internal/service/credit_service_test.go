package service

import (
	"context"
	"testing"

	"docshare/internal/model"
	"docshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRegisterGrantsStartingCredits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := registerUser(t, db, "alice@example.com")
	svc := NewCreditService(db)

	balance, err := svc.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits), balance)

	// 初始积分通过流水发放，不是直接写余额
	transactions, total, err := svc.ListTransactions(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(model.StartingCredits), transactions[0].Amount)
	assert.Equal(t, model.CreditKindEarn, transactions[0].Kind)
	assert.Equal(t, ReasonSignupBonus, transactions[0].Reason)
}

func TestBalanceEqualsLedgerSum(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := registerUser(t, db, "bob@example.com")
	svc := NewCreditService(db)

	_, err := svc.Purchase(ctx, user.ID, 20)
	require.NoError(t, err)

	_, err = svc.ApplyEntry(ctx, nil, user.ID, -7, model.CreditKindSpend, ReasonDownload, nil)
	require.NoError(t, err)

	balance, ledgerSum, err := svc.Reconcile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ledgerSum, balance)
	assert.Equal(t, int64(model.StartingCredits+20-7), balance)
}

func TestApplyEntryInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := registerUser(t, db, "carol@example.com")
	svc := NewCreditService(db)

	_, err := svc.ApplyEntry(ctx, nil, user.ID, -100, model.CreditKindSpend, ReasonDownload, nil)
	assert.ErrorIs(t, err, repository.ErrBalanceNotEnough)

	// 失败的扣减不产生流水，余额不变
	balance, ledgerSum, err := svc.Reconcile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits), balance)
	assert.Equal(t, balance, ledgerSum)
}

func TestApplyEntrySeesRowsFromOwnTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(db)
	ctx := context.Background()

	// 开户和首笔入账在同一个未提交事务里：入账必须能看见刚建的账户，
	// 不能去连接池拿别的连接读（单连接场景下那是死锁）
	accountRepo := repository.NewAccountRepository(db)
	var returned int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := accountRepo.Create(ctx, tx, &model.Account{UserID: 77, Balance: 0}); err != nil {
			return err
		}
		var err error
		returned, err = svc.ApplyEntry(ctx, tx, 77, 10, model.CreditKindEarn, ReasonSignupBonus, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), returned)

	// 返回的余额与提交后的落库值一致
	balance, err := svc.GetBalance(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, returned, balance)
}

func TestApplyEntryRejectsUnknownKind(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := registerUser(t, db, "dave@example.com")
	svc := NewCreditService(db)

	_, err := svc.ApplyEntry(ctx, nil, user.ID, 5, "bonus", "whatever", nil)
	assert.ErrorIs(t, err, ErrInvalidCreditKind)
}

func TestPurchaseCredits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := registerUser(t, db, "erin@example.com")
	svc := NewCreditService(db)

	balance, err := svc.Purchase(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits+50), balance)

	transactions, _, err := svc.ListTransactions(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	purchase := findTransaction(t, transactions, model.CreditKindPurchase)
	assert.Equal(t, int64(50), purchase.Amount)
	assert.Equal(t, "Purchased 50 credits", purchase.Reason)

	_, err = svc.Purchase(ctx, user.ID, 0)
	assert.Error(t, err)
}
