package service

import (
	"errors"

	"docshare/internal/model"
)

var ErrPrivateDocument = errors.New("私有文档仅上传者可下载")

// DownloadCost 下载准入判定（纯只读，不触发任何副作用）
//
// public  -> 任何人可下载，费用 0
// premium -> 任何人可下载，费用 credit_cost，余额是否充足由编排方校验
// private -> 仅上传者本人可下载，费用 0
//
// 注意：上传者下载自己的 premium 文档同样扣费，与线上行为保持一致
func DownloadCost(userID int64, doc *model.Document) (int64, error) {
	switch doc.AccessType {
	case model.AccessTypePrivate:
		if doc.UserID != userID {
			return 0, ErrPrivateDocument
		}
		return 0, nil
	case model.AccessTypePremium:
		return doc.CreditCost, nil
	default:
		return 0, nil
	}
}
