package service

import (
	"context"
	"errors"
	"testing"

	"docshare/internal/model"
	"docshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFreeDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	reader := registerUser(t, db, "reader@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	result, err := svc.Download(ctx, reader.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Cost)
	assert.Equal(t, doc.FileHandle, result.FileHandle)
	assert.NotEmpty(t, result.DownloadNo)

	// 免费下载不产生流水，余额不变
	balance, err := NewCreditService(db).GetBalance(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits), balance)

	// 下载量 +1
	fresh, err := repository.NewDocumentRepository(db).GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.DownloadCount)
}

func TestDownloadPremiumChargesCredits(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	creditSvc := NewCreditService(db)
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	reader := registerUser(t, db, "reader@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePremium, 4)

	result, err := svc.Download(ctx, reader.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Cost)
	assert.Equal(t, int64(model.StartingCredits-4), result.Balance)

	// 扣费走流水，余额与流水之和一致
	balance, ledgerSum, err := creditSvc.Reconcile(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits-4), balance)
	assert.Equal(t, balance, ledgerSum)

	transactions, _, err := creditSvc.ListTransactions(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	spend := findTransaction(t, transactions, model.CreditKindSpend)
	assert.Equal(t, int64(-4), spend.Amount)
	assert.Equal(t, ReasonDownload, spend.Reason)
	require.NotNil(t, spend.RelatedDocumentID)
	assert.Equal(t, doc.ID, *spend.RelatedDocumentID)

	// 事务内写入了下载事件
	msgs, err := repository.NewOutboxRepository(db).GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, result.DownloadNo, msgs[0].MessageKey)
	assert.Equal(t, "test.download.events", msgs[0].Topic)
}

func TestRepeatDownloadChargesEveryTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	reader := registerUser(t, db, "reader@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePremium, 4)

	// 重复下载不去重，每次都是独立的一笔
	first, err := svc.Download(ctx, reader.ID, doc.ID)
	require.NoError(t, err)
	second, err := svc.Download(ctx, reader.ID, doc.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.DownloadNo, second.DownloadNo)
	assert.Equal(t, int64(model.StartingCredits-8), second.Balance)

	_, total, err := svc.ListUserDownloads(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestConcurrentDownloadsOnlyOneSucceeds(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	reader := registerUser(t, db, "reader@example.com")
	// 余额 10 只够一次下载
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePremium, 6)

	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Download(ctx, reader.ID, doc.ID)
			errCh <- err
		}()
	}

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		err := <-errCh
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrBalanceNotEnough):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 用户维度的锁把两笔下载串行化，恰好成功一笔
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	_, total, err := svc.ListUserDownloads(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	balance, ledgerSum, err := NewCreditService(db).Reconcile(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits-6), balance)
	assert.Equal(t, balance, ledgerSum)
}

func TestDownloadInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	reader := registerUser(t, db, "reader@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePremium, 6)

	// 10 积分只够下载一次，第二次余额不足
	_, err := svc.Download(ctx, reader.ID, doc.ID)
	require.NoError(t, err)
	_, err = svc.Download(ctx, reader.ID, doc.ID)
	assert.ErrorIs(t, err, repository.ErrBalanceNotEnough)

	// 失败的下载不留任何痕迹
	_, total, err := svc.ListUserDownloads(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	fresh, err := repository.NewDocumentRepository(db).GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.DownloadCount)

	balance, ledgerSum, err := NewCreditService(db).Reconcile(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits-6), balance)
	assert.Equal(t, balance, ledgerSum)
}

func TestDownloadPrivateDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	stranger := registerUser(t, db, "stranger@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePrivate, 0)

	// 非上传者被拒，且不产生任何副作用
	_, err := svc.Download(ctx, stranger.ID, doc.ID)
	assert.ErrorIs(t, err, ErrPrivateDocument)

	fresh, err := repository.NewDocumentRepository(db).GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.DownloadCount)

	// 上传者本人可以免费下载
	result, err := svc.Download(ctx, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Cost)
}

func TestOwnerPaysForOwnPremiumDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePremium, 3)

	// 上传者下载自己的付费文档同样扣费
	result, err := svc.Download(ctx, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Cost)

	// 注册 10 + 上传奖励 5 - 下载 3
	balance, err := NewCreditService(db).GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.StartingCredits+model.UploadRewardCredits-3), balance)
}

func TestDownloadMissingDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, newTestRedis(t), newTestConfig())
	ctx := context.Background()

	reader := registerUser(t, db, "reader@example.com")

	_, err := svc.Download(ctx, reader.ID, 99999)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}
