package model

import (
	"time"
)

// ============================================================================
// 用户角色常量
// ============================================================================

const (
	RoleUser      = "user"      // 普通用户
	RoleModerator = "moderator" // 审核员
	RoleAdmin     = "admin"     // 管理员
)

// ValidRoles 合法角色集合
var ValidRoles = []string{RoleUser, RoleModerator, RoleAdmin}

// IsValidRole 校验角色是否合法
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanModerate 是否具有审核权限（审核员和管理员）
func CanModerate(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}

// User 用户表
// 积分余额不存储在这里，见 Account（余额只能通过流水变更）
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	FullName   string    `gorm:"type:varchar(128);not null" json:"full_name"`
	Avatar     string    `gorm:"type:varchar(256)" json:"avatar"`
	Bio        string    `gorm:"type:text" json:"bio"`
	School     string    `gorm:"type:varchar(128)" json:"school"`
	Major      string    `gorm:"type:varchar(128)" json:"major"`
	Role       string    `gorm:"type:varchar(20);not null;default:user" json:"role"`
	IsVerified bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
