package model

import (
	"time"
)

// ============================================================================
// 积分流水类型常量
// ============================================================================

const (
	CreditKindEarn     = "earn"     // 获得（上传奖励、注册奖励）
	CreditKindSpend    = "spend"    // 消费（下载付费文档）
	CreditKindPurchase = "purchase" // 充值购买
)

// IsValidCreditKind 校验流水类型
func IsValidCreditKind(kind string) bool {
	return kind == CreditKindEarn || kind == CreditKindSpend || kind == CreditKindPurchase
}

// CreditTransaction 积分流水表
// 记录每一笔积分变动，是对账的核心依据
//
// 流水表设计原则：
// 1. 只追加，不修改，不删除
// 2. 余额永远等于流水 amount 之和
// 3. 文档删除时 related_document_id 置空，流水本身保留
type CreditTransaction struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	UserID            int64     `gorm:"index;not null" json:"user_id"`
	Amount            int64     `gorm:"not null" json:"amount"`                // 金额（正数入账，负数出账）
	Kind              string    `gorm:"type:varchar(20);not null" json:"kind"` // earn / spend / purchase
	Reason            string    `gorm:"type:varchar(256);not null" json:"reason"`
	RelatedDocumentID *int64    `gorm:"index" json:"related_document_id"` // 关联文档（可空的历史指针）
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
