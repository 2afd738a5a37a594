package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"docshare/internal/infrastructure/database"
	"docshare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestDeductConditionalUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, &model.Account{UserID: 1, Balance: 10}))

	account, err := repo.GetByUserID(ctx, nil, 1)
	require.NoError(t, err)

	// 正常扣减：余额减少，版本号递增
	require.NoError(t, repo.Deduct(ctx, nil, 1, 4, account.Version))

	fresh, err := repo.GetByUserID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), fresh.Balance)
	assert.Equal(t, account.Version+1, fresh.Version)

	// 余额不足
	err = repo.Deduct(ctx, nil, 1, 100, fresh.Version)
	assert.ErrorIs(t, err, ErrBalanceNotEnough)

	// 版本号过期（余额其实够）
	err = repo.Deduct(ctx, nil, 1, 2, fresh.Version-1)
	assert.ErrorIs(t, err, ErrOptimisticLock)

	// 两种失败都不改余额
	unchanged, err := repo.GetByUserID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), unchanged.Balance)
}

func TestIncreaseBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, &model.Account{UserID: 7, Balance: 0}))

	require.NoError(t, repo.Increase(ctx, nil, 7, 15))

	account, err := repo.GetByUserID(ctx, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(15), account.Balance)
	assert.Equal(t, 1, account.Version)

	assert.ErrorIs(t, repo.Increase(ctx, nil, 404, 1), ErrAccountNotFound)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
