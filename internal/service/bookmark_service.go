package service

import (
	"context"
	"errors"
	"strings"

	"docshare/internal/model"
	"docshare/internal/repository"

	"gorm.io/gorm"
)

// 收藏服务
// 唯一键 uk_bookmark_user_doc 兜底防重，服务层先查一次给出友好错误

type BookmarkService struct {
	db           *gorm.DB
	bookmarkRepo *repository.BookmarkRepository
	documentRepo *repository.DocumentRepository
}

func NewBookmarkService(db *gorm.DB) *BookmarkService {
	return &BookmarkService{
		db:           db,
		bookmarkRepo: repository.NewBookmarkRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
	}
}

// Add 收藏文档
func (s *BookmarkService) Add(ctx context.Context, userID, documentID int64) (*model.Bookmark, error) {
	if _, err := s.documentRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	if _, err := s.bookmarkRepo.GetByUserAndDocument(ctx, userID, documentID); err == nil {
		return nil, repository.ErrBookmarkExists
	} else if !errors.Is(err, repository.ErrBookmarkNotFound) {
		return nil, err
	}

	bookmark := &model.Bookmark{UserID: userID, DocumentID: documentID}
	if err := s.bookmarkRepo.Create(ctx, bookmark); err != nil {
		// 并发下唯一键可能先于我们的检查生效
		if strings.Contains(err.Error(), "uk_bookmark_user_doc") {
			return nil, repository.ErrBookmarkExists
		}
		return nil, err
	}
	return bookmark, nil
}

// Remove 取消收藏
func (s *BookmarkService) Remove(ctx context.Context, userID, documentID int64) error {
	return s.bookmarkRepo.Delete(ctx, userID, documentID)
}

// List 用户的收藏列表（附带文档详情，已删除的文档跳过）
func (s *BookmarkService) List(ctx context.Context, userID int64) ([]*model.Document, error) {
	bookmarks, err := s.bookmarkRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	docs := make([]*model.Document, 0, len(bookmarks))
	for _, b := range bookmarks {
		doc, err := s.documentRepo.GetByID(ctx, b.DocumentID)
		if err != nil {
			if errors.Is(err, repository.ErrDocumentNotFound) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
