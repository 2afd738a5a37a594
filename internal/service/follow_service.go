package service

import (
	"context"
	"errors"
	"strings"

	"docshare/internal/model"
	"docshare/internal/repository"

	"gorm.io/gorm"
)

var ErrFollowSelf = errors.New("不能关注自己")

// 关注服务

type FollowService struct {
	db         *gorm.DB
	followRepo *repository.FollowRepository
	userRepo   *repository.UserRepository
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		db:         db,
		followRepo: repository.NewFollowRepository(db),
		userRepo:   repository.NewUserRepository(db),
	}
}

// Follow 关注用户
func (s *FollowService) Follow(ctx context.Context, followerID, followingID int64) error {
	if followerID == followingID {
		return ErrFollowSelf
	}
	if _, err := s.userRepo.GetByID(ctx, followingID); err != nil {
		return err
	}

	if _, err := s.followRepo.GetPair(ctx, followerID, followingID); err == nil {
		return repository.ErrFollowExists
	} else if !errors.Is(err, repository.ErrFollowNotFound) {
		return err
	}

	follow := &model.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		if strings.Contains(err.Error(), "uk_follow_pair") {
			return repository.ErrFollowExists
		}
		return err
	}
	return nil
}

// Unfollow 取消关注
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	return s.followRepo.Delete(ctx, followerID, followingID)
}

// ListFollowers 粉丝列表
func (s *FollowService) ListFollowers(ctx context.Context, userID int64) ([]*model.User, error) {
	ids, err := s.followRepo.ListFollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadUsers(ctx, ids)
}

// ListFollowing 关注列表
func (s *FollowService) ListFollowing(ctx context.Context, userID int64) ([]*model.User, error) {
	ids, err := s.followRepo.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadUsers(ctx, ids)
}

func (s *FollowService) loadUsers(ctx context.Context, ids []int64) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
