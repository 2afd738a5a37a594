package repository

import (
	"context"
	"errors"
	"fmt"

	"docshare/internal/model"

	"gorm.io/gorm"
)

var (
	ErrDocumentNotFound      = errors.New("文档不存在")
	ErrDocumentStatusInvalid = errors.New("文档状态不合法")
)

// DocumentListFilter 文档列表查询条件
type DocumentListFilter struct {
	Search  string // 标题/描述模糊搜索
	School  string
	Subject string
	Tag     string
	Status  string // 为空则不过滤（仅管理端使用）
	UserID  int64  // 为 0 则不过滤
	SortBy  string // created_at / download_count / average_rating
	Order   string // ASC / DESC
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, tx *gorm.DB, doc *model.Document) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

var allowedSortColumns = map[string]bool{
	"created_at":     true,
	"download_count": true,
	"view_count":     true,
	"average_rating": true,
}

func (r *DocumentRepository) List(ctx context.Context, filter *DocumentListFilter, page, pageSize int) ([]*model.Document, int64, error) {
	var docs []*model.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Document{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.School != "" {
		query = query.Where("school LIKE ?", "%"+filter.School+"%")
	}
	if filter.Subject != "" {
		query = query.Where("subject LIKE ?", "%"+filter.Subject+"%")
	}
	if filter.Tag != "" {
		query = query.Where("tags LIKE ?", "%"+filter.Tag+"%")
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if filter.Order == "ASC" {
		order = "ASC"
	}

	err = query.
		Order(fmt.Sprintf("%s %s", sortBy, order)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error

	return docs, total, err
}

// UpdateStatus 状态流转（带流转规则校验 + 状态 CAS）
// WHERE 条件带上旧状态，并发修改时只有一个会生效
func (r *DocumentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string) error {
	if !model.CanDocumentTransitionTo(fromStatus, toStatus) {
		return ErrDocumentStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDocumentStatusInvalid
	}

	return nil
}

// IncrementViewCount 浏览量 +1
// 在存储层做原子自增，避免读改写丢更新
func (r *DocumentRepository) IncrementViewCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementDownloadCount 下载量 +1（必须在下载事务内调用）
func (r *DocumentRepository) IncrementDownloadCount(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// UpdateRating 写入重算后的评分聚合（必须在评论变更的同一事务内调用）
func (r *DocumentRepository) UpdateRating(ctx context.Context, tx *gorm.DB, id int64, average float64, count int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"rating_count":   count,
		}).Error
}

func (r *DocumentRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&total).Error
	return total, err
}

// SumDownloadCount 全站累计下载量（管理端看板用）
func (r *DocumentRepository) SumDownloadCount(ctx context.Context) (int64, error) {
	var sum *int64
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Select("SUM(download_count)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *DocumentRepository) ListRecent(ctx context.Context, limit int) ([]*model.Document, error) {
	var docs []*model.Document
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}
