package model

import (
	"time"
)

// Download 下载记录表
// 只追加的审计记录，每次成功下载一行，重复下载不去重（每次都扣费、都记录）
type Download struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DownloadNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"download_no"`
	UserID     int64     `gorm:"index;not null" json:"user_id"`
	DocumentID int64     `gorm:"index;not null" json:"document_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Download) TableName() string {
	return "downloads"
}
