package model

import (
	"time"
)

// ============================================================================
// 文档访问类型 / 审核状态常量
// ============================================================================

const (
	AccessTypePublic  = "public"  // 公开，免费下载
	AccessTypePremium = "premium" // 付费，下载扣 credit_cost 积分
	AccessTypePrivate = "private" // 私有，仅上传者可下载
)

// IsValidAccessType 校验访问类型
func IsValidAccessType(t string) bool {
	return t == AccessTypePublic || t == AccessTypePremium || t == AccessTypePrivate
}

const (
	DocumentStatusPending  = "pending"  // 待审核（上传后的默认状态）
	DocumentStatusApproved = "approved" // 审核通过，可被浏览和搜索
	DocumentStatusRejected = "rejected" // 已下架（审核拒绝或举报被处理）
)

// IsValidDocumentStatus 校验审核状态
func IsValidDocumentStatus(status string) bool {
	return status == DocumentStatusPending ||
		status == DocumentStatusApproved ||
		status == DocumentStatusRejected
}

// CanDocumentTransitionTo 文档状态流转规则
// 三个状态之间可以任意流转，唯独离开 pending 之后不允许回到 pending，
// 重新审核通过显式改状态完成，不走回 pending 队列
func CanDocumentTransitionTo(currentStatus, targetStatus string) bool {
	if !IsValidDocumentStatus(targetStatus) {
		return false
	}
	if targetStatus == DocumentStatusPending {
		return currentStatus == DocumentStatusPending
	}
	return true
}

// UploadRewardCredits 上传文档的积分奖励
const UploadRewardCredits = 5

// Document 文档表
//
// average_rating / rating_count 是派生字段，必须与 comments 表中该文档
// 非空评分的均值和数量保持一致，只允许在评论变更的同一事务内重算写入
type Document struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"` // 上传者（文档的内容所有者）
	Title         string    `gorm:"type:varchar(256);not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	FileName      string    `gorm:"type:varchar(256);not null" json:"file_name"` // 原始文件名
	FileHandle    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"` // 存储层的不透明句柄
	FileSize      int64     `gorm:"not null" json:"file_size"`
	FileType      string    `gorm:"type:varchar(32)" json:"file_type"`
	School        string    `gorm:"type:varchar(128)" json:"school"`
	Subject       string    `gorm:"type:varchar(128)" json:"subject"`
	Tags          string    `gorm:"type:varchar(512)" json:"tags"` // 逗号分隔
	AccessType    string    `gorm:"type:varchar(20);not null;default:public" json:"access_type"`
	CreditCost    int64     `gorm:"not null;default:0" json:"credit_cost"` // 仅 premium 有意义
	Status        string    `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	ViewCount     int64     `gorm:"not null;default:0" json:"view_count"`
	DownloadCount int64     `gorm:"not null;default:0" json:"download_count"`
	AverageRating float64   `gorm:"not null;default:0" json:"average_rating"`
	RatingCount   int64     `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
