package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"docshare/internal/config"
	"docshare/internal/model"
	"docshare/internal/repository"

	"gorm.io/gorm"
)

// ============================================================================
// 审核服务
//
// 举报状态机：pending -> reviewed / resolved / rejected，reviewed 还可以
// 终审，resolved / rejected 是终态。只有 resolved 会联动文档：在同一事务内
// 把被举报文档置为 rejected（下架），reviewed 和 rejected 对文档零副作用
// ============================================================================

var (
	ErrReportSelfDocument = errors.New("不能举报自己的文档")
	ErrEmptyReportReason  = errors.New("举报原因不能为空")
)

type ModerationService struct {
	db           *gorm.DB
	cfg          *config.Config
	reportRepo   *repository.ReportRepository
	documentRepo *repository.DocumentRepository
	outboxRepo   *repository.OutboxRepository
}

func NewModerationService(db *gorm.DB, cfg *config.Config) *ModerationService {
	return &ModerationService{
		db:           db,
		cfg:          cfg,
		reportRepo:   repository.NewReportRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

// CreateReport 提交举报，初始状态 pending
func (s *ModerationService) CreateReport(ctx context.Context, reporterID, documentID int64, reason, description string) (*model.Report, error) {
	if reason == "" {
		return nil, ErrEmptyReportReason
	}

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID == reporterID {
		return nil, ErrReportSelfDocument
	}

	report := &model.Report{
		DocumentID:  documentID,
		ReporterID:  reporterID,
		Reason:      reason,
		Description: description,
		Status:      model.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, nil, report); err != nil {
		return nil, err
	}
	return report, nil
}

// TransitionReport 举报状态流转（审核员操作）
//
// 目标状态为 resolved 时，同一事务内把被举报文档置为 rejected；
// 文档已经是 rejected 的情况下举报依然可以 resolved（文档状态不再变）
func (s *ModerationService) TransitionReport(ctx context.Context, reviewerID, reportID int64, targetStatus, note string) (*model.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if !model.CanReportTransitionTo(report.Status, targetStatus) {
		return nil, repository.ErrReportStatusInvalid
	}

	// 文档在事务外读：它不是本事务的产物，事务内的状态 CAS 会兜住
	// 读后被并发改掉的情况。文档已被删除时举报照常终结
	var doc *model.Document
	if targetStatus == model.ReportStatusResolved {
		doc, err = s.documentRepo.GetByID(ctx, report.DocumentID)
		if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reportRepo.UpdateStatus(ctx, tx, reportID, report.Status, targetStatus, reviewerID, note); err != nil {
			return err
		}

		if targetStatus == model.ReportStatusResolved {
			if doc != nil && doc.Status != model.DocumentStatusRejected {
				if err := s.documentRepo.UpdateStatus(ctx, tx, doc.ID, doc.Status, model.DocumentStatusRejected); err != nil {
					return fmt.Errorf("下架文档失败: %w", err)
				}
			}
			if err := s.publishModerationEvent(ctx, tx, report, targetStatus, reviewerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("举报处理完成: reportID=%d, %s -> %s, reviewerID=%d",
		reportID, report.Status, targetStatus, reviewerID)

	return s.reportRepo.GetByID(ctx, reportID)
}

// TransitionDocument 直接流转文档状态（管理端审核通过/下架/恢复）
// 离开 pending 后不允许回到 pending
func (s *ModerationService) TransitionDocument(ctx context.Context, documentID int64, targetStatus string) (*model.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.documentRepo.UpdateStatus(ctx, nil, documentID, doc.Status, targetStatus); err != nil {
		return nil, err
	}

	log.Printf("文档状态变更: documentID=%d, %s -> %s", documentID, doc.Status, targetStatus)
	return s.documentRepo.GetByID(ctx, documentID)
}

// ListReports 按状态分页查询举报
func (s *ModerationService) ListReports(ctx context.Context, status string, page, pageSize int) ([]*model.Report, int64, error) {
	if status != "" {
		valid := status == model.ReportStatusPending ||
			status == model.ReportStatusReviewed ||
			status == model.ReportStatusResolved ||
			status == model.ReportStatusRejected
		if !valid {
			return nil, 0, repository.ErrReportStatusInvalid
		}
	}
	return s.reportRepo.List(ctx, status, page, pageSize)
}

// GetReport 查询单条举报
func (s *ModerationService) GetReport(ctx context.Context, reportID int64) (*model.Report, error) {
	return s.reportRepo.GetByID(ctx, reportID)
}

func (s *ModerationService) publishModerationEvent(ctx context.Context, tx *gorm.DB, report *model.Report, targetStatus string, reviewerID int64) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"report_id":   report.ID,
		"document_id": report.DocumentID,
		"status":      targetStatus,
		"reviewer_id": reviewerID,
		"resolved_at": time.Now().Format(time.RFC3339),
	})

	msg := &model.OutboxMessage{
		MessageKey: fmt.Sprintf("report-%d", report.ID),
		Topic:      s.cfg.Kafka.Topic.ModerationEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}
