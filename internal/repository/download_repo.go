package repository

import (
	"context"

	"docshare/internal/model"

	"gorm.io/gorm"
)

type DownloadRepository struct {
	db *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create 追加一条下载记录（审计记录只追加，文档删除后依然保留）
func (r *DownloadRepository) Create(ctx context.Context, tx *gorm.DB, download *model.Download) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(download).Error
}

func (r *DownloadRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.Download, int64, error) {
	var downloads []*model.Download
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Download{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&downloads).Error

	return downloads, total, err
}

func (r *DownloadRepository) CountByDocumentID(ctx context.Context, documentID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Download{}).
		Where("document_id = ?", documentID).
		Count(&total).Error
	return total, err
}
