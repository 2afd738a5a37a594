package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"docshare/internal/config"
	"docshare/internal/infrastructure/lock"
	"docshare/internal/model"
	"docshare/internal/repository"
	"docshare/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ============================================================================
// 下载编排服务
//
// 一次下载 = 准入判定 + 余额校验 + 扣费流水 + 下载记录 + 下载量自增，
// 后四步在同一事务内，任何一步失败整体回滚，不会出现"扣了费没记录"
//
// 刻意不做幂等：同样的请求重复调用会重复扣费、重复记录，
// 需要恰好一次扣费的调用方自行在上层去重
// ============================================================================

type DownloadService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	creditSvc    *CreditService
	accountRepo  *repository.AccountRepository
	documentRepo *repository.DocumentRepository
	downloadRepo *repository.DownloadRepository
	outboxRepo   *repository.OutboxRepository
}

func NewDownloadService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *DownloadService {
	return &DownloadService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		creditSvc:    NewCreditService(db),
		accountRepo:  repository.NewAccountRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
		downloadRepo: repository.NewDownloadRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

// DownloadResult 下载结果，FileHandle 交给 HTTP 层去流式返回文件内容
type DownloadResult struct {
	DownloadNo string
	Document   *model.Document
	FileHandle string
	Cost       int64
	Balance    int64 // 扣费后余额（免费下载时为扣费前余额）
}

// Download 执行一次下载
func (s *DownloadService) Download(ctx context.Context, userID, documentID int64) (*DownloadResult, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// 准入判定（纯读，不产生副作用）
	cost, err := DownloadCost(userID, doc)
	if err != nil {
		return nil, err
	}

	downloadNo := idgen.GenerateDownloadNo()

	// 按用户维度加锁，同一用户的并发下载串行化，
	// 余额只够一次下载时并发请求只会成功一笔
	dlLock := lock.NewDownloadLock(s.redisClient, userID, downloadNo)
	if err := dlLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer dlLock.Unlock(ctx)

	var balance int64
	err = withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if cost > 0 {
				// 先读后扣，读走 tx：余额不足直接失败，不做部分扣费
				account, err := s.accountRepo.GetByUserID(ctx, tx, userID)
				if err != nil {
					return err
				}
				if account.Balance < cost {
					return repository.ErrBalanceNotEnough
				}

				balance, err = s.creditSvc.ApplyEntry(ctx, tx, userID, -cost,
					model.CreditKindSpend, ReasonDownload, &doc.ID)
				if err != nil {
					return err
				}
			} else {
				account, err := s.accountRepo.GetByUserID(ctx, tx, userID)
				if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
					return err
				}
				if account != nil {
					balance = account.Balance
				}
			}

			download := &model.Download{
				DownloadNo: downloadNo,
				UserID:     userID,
				DocumentID: doc.ID,
			}
			if err := s.downloadRepo.Create(ctx, tx, download); err != nil {
				return fmt.Errorf("记录下载失败: %w", err)
			}

			if err := s.documentRepo.IncrementDownloadCount(ctx, tx, doc.ID); err != nil {
				return fmt.Errorf("更新下载量失败: %w", err)
			}

			msgPayload := map[string]interface{}{
				"download_no":   downloadNo,
				"user_id":       userID,
				"document_id":   doc.ID,
				"cost":          cost,
				"downloaded_at": time.Now().Format(time.RFC3339),
			}
			payloadBytes, _ := json.Marshal(msgPayload)

			outboxMsg := &model.OutboxMessage{
				MessageKey: downloadNo,
				Topic:      s.cfg.Kafka.Topic.DownloadEvents,
				Payload:    string(payloadBytes),
				Status:     model.OutboxStatusPending,
			}
			if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
				return fmt.Errorf("写入消息失败: %w", err)
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("下载成功: downloadNo=%s, userID=%d, documentID=%d, cost=%d",
		downloadNo, userID, doc.ID, cost)

	return &DownloadResult{
		DownloadNo: downloadNo,
		Document:   doc,
		FileHandle: doc.FileHandle,
		Cost:       cost,
		Balance:    balance,
	}, nil
}

// ListUserDownloads 查询用户的下载历史
func (s *DownloadService) ListUserDownloads(ctx context.Context, userID int64, page, pageSize int) ([]*model.Download, int64, error) {
	return s.downloadRepo.ListByUserID(ctx, userID, page, pageSize)
}
