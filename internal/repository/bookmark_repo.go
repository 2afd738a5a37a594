package repository

import (
	"context"
	"errors"

	"docshare/internal/model"

	"gorm.io/gorm"
)

var (
	ErrBookmarkNotFound = errors.New("收藏不存在")
	ErrBookmarkExists   = errors.New("已收藏过该文档")
)

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Create(ctx context.Context, bookmark *model.Bookmark) error {
	return r.db.WithContext(ctx).Create(bookmark).Error
}

func (r *BookmarkRepository) GetByUserAndDocument(ctx context.Context, userID, documentID int64) (*model.Bookmark, error) {
	var bookmark model.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		First(&bookmark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookmarkNotFound
		}
		return nil, err
	}
	return &bookmark, nil
}

func (r *BookmarkRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.Bookmark, error) {
	var bookmarks []*model.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}

func (r *BookmarkRepository) Delete(ctx context.Context, userID, documentID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		Delete(&model.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func (r *BookmarkRepository) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Bookmark{}).Error
}
