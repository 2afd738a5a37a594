package repository

import (
	"context"

	"docshare/internal/model"

	"gorm.io/gorm"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Create 追加一条积分流水（流水只追加，不提供更新和删除方法）
func (r *CreditRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.CreditTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

func (r *CreditRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	var transactions []*model.CreditTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.CreditTransaction{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// SumByUserID 汇总用户全部流水金额，用于对账校验余额
func (r *CreditRepository) SumByUserID(ctx context.Context, userID int64) (int64, error) {
	var sum *int64
	err := r.db.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// ClearDocumentRef 文档删除时清空流水上的文档引用
// 流水本身保留，金额不动，只是历史指针置空
func (r *CreditRepository) ClearDocumentRef(ctx context.Context, tx *gorm.DB, documentID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("related_document_id = ?", documentID).
		Update("related_document_id", nil).Error
}
