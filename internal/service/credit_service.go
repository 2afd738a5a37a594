package service

import (
	"context"
	"errors"
	"fmt"

	"docshare/internal/model"
	"docshare/internal/repository"
	"docshare/pkg/idgen"

	"gorm.io/gorm"
)

// ============================================================================
// 积分账本服务
//
// 余额的唯一变更入口是 ApplyEntry：同一事务内写一条流水 + 条件更新余额，
// 两者要么都生效要么都回滚，保证"余额 == 流水之和"的不变式
// ============================================================================

// 流水 reason 常量（对外展示 & 对账用，入库后不再变更）
const (
	ReasonSignupBonus    = "Signup bonus"
	ReasonDocumentUpload = "Document upload"
	ReasonDownload       = "Document download"
)

// maxConflictRetries 乐观锁冲突的内部重试上限，超过后把冲突抛给调用方
const maxConflictRetries = 3

var ErrInvalidCreditKind = errors.New("流水类型不合法")

type CreditService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	creditRepo  *repository.CreditRepository
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{
		db:          db,
		accountRepo: repository.NewAccountRepository(db),
		creditRepo:  repository.NewCreditRepository(db),
	}
}

// withConflictRetry 对乐观锁冲突做有限次重试
// 只有 ErrOptimisticLock 会重试，其他错误原样返回
func withConflictRetry(fn func() error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = fn()
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return err
		}
	}
	return err
}

// OpenAccount 开户并发放注册奖励
// 必须和用户创建在同一事务内调用，奖励走流水，余额从第一条流水起就可对账
func (s *CreditService) OpenAccount(ctx context.Context, tx *gorm.DB, userID int64) error {
	account := &model.Account{UserID: userID, Balance: 0}
	if err := s.accountRepo.Create(ctx, tx, account); err != nil {
		return fmt.Errorf("创建账户失败: %w", err)
	}

	_, err := s.ApplyEntry(ctx, tx, userID, model.StartingCredits, model.CreditKindEarn, ReasonSignupBonus, nil)
	if err != nil {
		return fmt.Errorf("发放注册奖励失败: %w", err)
	}
	return nil
}

// ApplyEntry 记一笔积分流水并同步变更余额，返回变更后的余额
//
// 必须在调用方的事务内执行。amount 为负时做条件扣减（余额不足或版本冲突
// 都会失败回滚），为正时直接入账。spend 的余额充足性由调用方在扣费前
// 校验（见下载编排），这里只保证扣减不会把余额打成负数
func (s *CreditService) ApplyEntry(ctx context.Context, tx *gorm.DB, userID int64, amount int64, kind, reason string, relatedDocumentID *int64) (int64, error) {
	if !model.IsValidCreditKind(kind) {
		return 0, ErrInvalidCreditKind
	}
	if tx == nil {
		tx = s.db
	}

	// 读和写都走 tx：同一事务内刚开的户在这里才可见
	account, err := s.accountRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if amount < 0 {
		if err := s.accountRepo.Deduct(ctx, tx, userID, -amount, account.Version); err != nil {
			return 0, err
		}
	} else {
		if err := s.accountRepo.Increase(ctx, tx, userID, amount); err != nil {
			return 0, err
		}
	}

	trans := &model.CreditTransaction{
		TransactionNo:     idgen.GenerateTransactionNo(),
		UserID:            userID,
		Amount:            amount,
		Kind:              kind,
		Reason:            reason,
		RelatedDocumentID: relatedDocumentID,
	}
	if err := s.creditRepo.Create(ctx, tx, trans); err != nil {
		return 0, fmt.Errorf("记录流水失败: %w", err)
	}

	// 变更后重读拿余额：Increase 没有版本守卫，拿变更前的快照做加法
	// 在并发入账时会返回过期值
	fresh, err := s.accountRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	return fresh.Balance, nil
}

// GetBalance 查询当前余额
func (s *CreditService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	account, err := s.accountRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// ListTransactions 查询流水（按时间倒序分页）
func (s *CreditService) ListTransactions(ctx context.Context, userID int64, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	return s.creditRepo.ListByUserID(ctx, userID, page, pageSize)
}

// Purchase 购买积分
// 支付网关接入前的占位实现：直接入账一条 purchase 流水
func (s *CreditService) Purchase(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("购买数量必须大于0")
	}

	var newBalance int64
	err := withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			newBalance, err = s.ApplyEntry(ctx, tx, userID, amount,
				model.CreditKindPurchase, fmt.Sprintf("Purchased %d credits", amount), nil)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Reconcile 对账：校验余额是否等于流水之和
func (s *CreditService) Reconcile(ctx context.Context, userID int64) (balance int64, ledgerSum int64, err error) {
	account, err := s.accountRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return 0, 0, err
	}
	sum, err := s.creditRepo.SumByUserID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return account.Balance, sum, nil
}
