package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"docshare/internal/model"
	"docshare/internal/repository"

	"gorm.io/gorm"
)

// ============================================================================
// 用户服务
//
// 注册 = 建用户 + 开积分账户 + 发注册奖励，三步一个事务，
// 不存在"有用户没账户"的中间态
// ============================================================================

var (
	ErrInvalidEmail = errors.New("邮箱格式不合法")
	ErrInvalidRole  = errors.New("角色不合法")
	ErrEmptyName    = errors.New("姓名不能为空")
)

type UserService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	creditSvc  *CreditService
	followRepo *repository.FollowRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		creditSvc:  NewCreditService(db),
		followRepo: repository.NewFollowRepository(db),
	}
}

// Register 注册用户并开户
func (s *UserService) Register(ctx context.Context, email, fullName, school, major string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if fullName == "" {
		return nil, ErrEmptyName
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, repository.ErrEmailExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		FullName: fullName,
		School:   school,
		Major:    major,
		Role:     model.RoleUser,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.creditSvc.OpenAccount(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("用户注册成功: userID=%d, email=%s", user.ID, email)
	return user, nil
}

// GetProfile 查询用户资料，附带关注统计
type Profile struct {
	User           *model.User `json:"user"`
	FollowerCount  int         `json:"follower_count"`
	FollowingCount int         `json:"following_count"`
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.followRepo.ListFollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:           user,
		FollowerCount:  len(followers),
		FollowingCount: len(following),
	}, nil
}

// UpdateProfile 更新个人资料（头像、简介、学校、专业）
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, avatar, bio, school, major string) (*model.User, error) {
	updates := map[string]interface{}{}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if bio != "" {
		updates["bio"] = bio
	}
	if school != "" {
		updates["school"] = school
	}
	if major != "" {
		updates["major"] = major
	}
	if len(updates) > 0 {
		err := s.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", userID).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateRole 管理端调整用户角色
func (s *UserService) UpdateRole(ctx context.Context, userID int64, role string) error {
	if !model.IsValidRole(role) {
		return ErrInvalidRole
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	log.Printf("用户角色变更: userID=%d, role=%s", userID, role)
	return nil
}

// ListUsers 管理端用户列表
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, page, pageSize)
}
