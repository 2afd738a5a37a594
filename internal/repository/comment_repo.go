package repository

import (
	"context"
	"errors"

	"docshare/internal/model"

	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("评论不存在")

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, tx *gorm.DB, comment *model.Comment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) ListByDocumentID(ctx context.Context, documentID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{}).Error
}

func (r *CommentRepository) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Comment{}).Error
}

// AggregateRating 从评论表实时重算文档评分聚合
// 没有任何评分时返回 (0, 0)，聚合字段必须和这里的查询结果保持一致
func (r *CommentRepository) AggregateRating(ctx context.Context, tx *gorm.DB, documentID int64) (float64, int64, error) {
	if tx == nil {
		tx = r.db
	}

	var result struct {
		Average *float64
		Count   int64
	}

	err := tx.WithContext(ctx).
		Model(&model.Comment{}).
		Where("document_id = ? AND rating IS NOT NULL", documentID).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}

	if result.Count == 0 || result.Average == nil {
		return 0, 0, nil
	}
	return *result.Average, result.Count, nil
}
