package model

import (
	"time"
)

// StartingCredits 注册时的初始积分（通过流水发放，保证余额==流水之和）
const StartingCredits = 10

// Account 积分账户表
// 记录用户当前积分余额，是余额查询的唯一权威来源
//
// 余额永远等于该用户所有流水 amount 之和，只能随流水在同一事务中变更，
// 禁止直接写 balance 字段
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // 当前积分余额，不允许为负
	Version   int       `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
