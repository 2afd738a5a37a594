package model

import (
	"time"
)

// Comment 评论表
// rating 可空：为空时只是普通评论，不参与文档评分聚合
type Comment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID int64     `gorm:"index;not null" json:"document_id"`
	UserID     int64     `gorm:"index;not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Rating     *int      `gorm:"" json:"rating"` // 1-5，可空
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// IsValidRating 评分范围校验
func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
