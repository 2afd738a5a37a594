package model

import (
	"time"
)

// Bookmark 收藏表
// 同一用户对同一文档只能收藏一次
type Bookmark struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"uniqueIndex:uk_bookmark_user_doc;not null" json:"user_id"`
	DocumentID int64     `gorm:"uniqueIndex:uk_bookmark_user_doc;index;not null" json:"document_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
