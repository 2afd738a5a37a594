package repository

import (
	"context"
	"errors"

	"docshare/internal/model"

	"gorm.io/gorm"
)

var (
	ErrReportNotFound      = errors.New("举报不存在")
	ErrReportStatusInvalid = errors.New("举报状态不合法")
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, tx *gorm.DB, report *model.Report) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(report).Error
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*model.Report, error) {
	var report model.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) List(ctx context.Context, status string, page, pageSize int) ([]*model.Report, int64, error) {
	var reports []*model.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reports).Error

	return reports, total, err
}

// UpdateStatus 举报状态流转（带流转规则校验 + 状态 CAS）
// 同时写入处理人和处理备注
func (r *ReportRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, reviewerID int64, note string) error {
	if !model.CanReportTransitionTo(fromStatus, toStatus) {
		return ErrReportStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Report{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":      toStatus,
			"reviewer_id": reviewerID,
			"review_note": note,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrReportStatusInvalid
	}

	return nil
}

func (r *ReportRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

func (r *ReportRepository) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Report{}).Error
}
