package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"docshare/internal/config"
	"docshare/internal/infrastructure/database"
	"docshare/internal/infrastructure/storage"
	"docshare/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库，表结构和生产环境同一份迁移
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
	// 共享缓存的内存库在最后一个连接关闭时销毁，限制单连接避免表锁
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				DownloadEvents:   "test.download.events",
				ModerationEvents: "test.moderation.events",
			},
		},
		Business: config.BusinessConfig{MaxRetryCount: 3},
	}
}

func newTestStore(t *testing.T) *storage.LocalStore {
	t.Helper()

	store, err := storage.NewLocalStore(&config.StorageConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return store
}

// findTransaction 按类型找一条流水（列表按时间排序，同毫秒内顺序不稳定）
func findTransaction(t *testing.T, transactions []*model.CreditTransaction, kind string) *model.CreditTransaction {
	t.Helper()

	for _, tr := range transactions {
		if tr.Kind == kind {
			return tr
		}
	}
	t.Fatalf("no %s transaction found", kind)
	return nil
}

// registerUser 走完整注册流程（建用户 + 开户 + 注册奖励）
func registerUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user, err := NewUserService(db).Register(context.Background(), email, "Test User", "", "")
	require.NoError(t, err)
	return user
}

// uploadDocument 上传一篇文档并置为审核通过
func uploadDocument(t *testing.T, db *gorm.DB, store *storage.LocalStore, ownerID int64, accessType string, creditCost int64) *model.Document {
	t.Helper()

	svc := NewDocumentService(db, store)
	doc, err := svc.Upload(context.Background(), ownerID, &UploadRequest{
		Title:      "Linear Algebra Notes",
		FileName:   "notes.pdf",
		FileType:   "pdf",
		AccessType: accessType,
		CreditCost: creditCost,
		Content:    strings.NewReader("file content"),
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Document{}).
		Where("id = ?", doc.ID).
		Update("status", model.DocumentStatusApproved).Error)
	doc.Status = model.DocumentStatusApproved
	return doc
}
