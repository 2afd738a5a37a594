package model

import (
	"time"
)

// ============================================================================
// 举报状态常量
// ============================================================================

const (
	ReportStatusPending  = "pending"  // 待处理
	ReportStatusReviewed = "reviewed" // 已查看，暂不处理
	ReportStatusResolved = "resolved" // 举报成立（唯一会联动下架文档的状态）
	ReportStatusRejected = "rejected" // 举报不成立，驳回，不影响文档
)

// ValidReportTransitions 举报状态流转规则
// resolved 和 rejected 是终态
var ValidReportTransitions = map[string][]string{
	ReportStatusPending:  {ReportStatusReviewed, ReportStatusResolved, ReportStatusRejected},
	ReportStatusReviewed: {ReportStatusResolved, ReportStatusRejected},
}

// CanReportTransitionTo 校验举报状态流转
func CanReportTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := ValidReportTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Report 举报表
// 进入 resolved 时在同一事务内将关联文档置为 rejected；
// reviewed / rejected 对文档没有任何副作用，这个不对称性是刻意的
type Report struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID  int64     `gorm:"index;not null" json:"document_id"`
	ReporterID  int64     `gorm:"index;not null" json:"reporter_id"`
	Reason      string    `gorm:"type:varchar(256);not null" json:"reason"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	ReviewerID  *int64    `gorm:"" json:"reviewer_id"` // 处理人（审核员/管理员）
	ReviewNote  string    `gorm:"type:text" json:"review_note"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}
