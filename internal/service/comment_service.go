package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docshare/internal/infrastructure/lock"
	"docshare/internal/model"
	"docshare/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================================
// 评论服务
//
// 文档上的 average_rating / rating_count 是派生字段，任何带评分的评论
// 增删都要在同一事务内从评论表重算后写回，绝不做增量修补
// ============================================================================

var (
	ErrInvalidRating     = errors.New("评分必须在1-5之间")
	ErrNotCommentOwner   = errors.New("只能删除自己的评论")
	ErrEmptyContent      = errors.New("评论内容不能为空")
	ErrDocumentNotPublic = errors.New("文档未审核通过，不能评论")
)

type CommentService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	commentRepo  *repository.CommentRepository
	documentRepo *repository.DocumentRepository
}

func NewCommentService(db *gorm.DB, redisClient *redis.Client) *CommentService {
	return &CommentService{
		db:           db,
		redisClient:  redisClient,
		commentRepo:  repository.NewCommentRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
	}
}

// AddComment 发表评论，rating 为 nil 时是纯文字评论，不影响评分聚合
func (s *CommentService) AddComment(ctx context.Context, userID, documentID int64, content string, rating *int) (*model.Comment, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if rating != nil && !model.IsValidRating(*rating) {
		return nil, ErrInvalidRating
	}

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentStatusApproved {
		return nil, ErrDocumentNotPublic
	}

	comment := &model.Comment{
		DocumentID: documentID,
		UserID:     userID,
		Content:    content,
		Rating:     rating,
	}

	// 纯文字评论不动聚合字段，直接落库
	if rating == nil {
		if err := s.commentRepo.Create(ctx, nil, comment); err != nil {
			return nil, err
		}
		return comment, nil
	}

	err = s.withRatingLock(ctx, documentID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.commentRepo.Create(ctx, tx, comment); err != nil {
				return err
			}
			return s.recomputeRating(ctx, tx, documentID)
		})
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment 删除评论
// 评论作者和审核员/管理员可删；带评分的评论删除后同事务重算聚合
func (s *CommentService) DeleteComment(ctx context.Context, userID int64, role string, commentID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !model.CanModerate(role) {
		return ErrNotCommentOwner
	}

	if comment.Rating == nil {
		return s.commentRepo.Delete(ctx, nil, commentID)
	}

	return s.withRatingLock(ctx, comment.DocumentID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.commentRepo.Delete(ctx, tx, commentID); err != nil {
				return err
			}
			return s.recomputeRating(ctx, tx, comment.DocumentID)
		})
	})
}

// ListComments 查询文档的评论列表
func (s *CommentService) ListComments(ctx context.Context, documentID int64) ([]*model.Comment, error) {
	if _, err := s.documentRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByDocumentID(ctx, documentID)
}

// recomputeRating 从评论表重算评分聚合并写回文档
// 必须在评论变更的同一事务内调用；没有任何评分时写回 (0, 0)
func (s *CommentService) recomputeRating(ctx context.Context, tx *gorm.DB, documentID int64) error {
	average, count, err := s.commentRepo.AggregateRating(ctx, tx, documentID)
	if err != nil {
		return fmt.Errorf("重算评分失败: %w", err)
	}
	return s.documentRepo.UpdateRating(ctx, tx, documentID, average, count)
}

func (s *CommentService) withRatingLock(ctx context.Context, documentID int64, fn func() error) error {
	ratingLock := lock.NewRatingLock(s.redisClient, documentID, uuid.New().String())
	if err := ratingLock.Lock(ctx, 50*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer ratingLock.Unlock(ctx)
	return fn()
}
