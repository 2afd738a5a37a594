package model

import (
	"time"
)

// Follow 关注表
// follower 关注 following，同一对用户只能存在一条记录，不允许关注自己
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  int64     `gorm:"uniqueIndex:uk_follow_pair;not null" json:"follower_id"`
	FollowingID int64     `gorm:"uniqueIndex:uk_follow_pair;index;not null" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
