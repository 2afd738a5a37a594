package service

import (
	"context"

	"docshare/internal/model"
	"docshare/internal/repository"

	"gorm.io/gorm"
)

// 管理端看板服务

type DashboardStats struct {
	UserCount      int64 `json:"user_count"`
	DocumentCount  int64 `json:"document_count"`
	TotalDownloads int64 `json:"total_downloads"`
	PendingReports int64 `json:"pending_reports"`
}

type AdminService struct {
	db           *gorm.DB
	userRepo     *repository.UserRepository
	documentRepo *repository.DocumentRepository
	reportRepo   *repository.ReportRepository
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
		reportRepo:   repository.NewReportRepository(db),
	}
}

// GetDashboard 汇总平台核心指标
func (s *AdminService) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	docCount, err := s.documentRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalDownloads, err := s.documentRepo.SumDownloadCount(ctx)
	if err != nil {
		return nil, err
	}
	pendingReports, err := s.reportRepo.CountByStatus(ctx, model.ReportStatusPending)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		UserCount:      userCount,
		DocumentCount:  docCount,
		TotalDownloads: totalDownloads,
		PendingReports: pendingReports,
	}, nil
}

// GetRecentActivity 最近注册用户和最近上传文档
type RecentActivity struct {
	RecentUsers     []*model.User     `json:"recent_users"`
	RecentDocuments []*model.Document `json:"recent_documents"`
}

func (s *AdminService) GetRecentActivity(ctx context.Context, limit int) (*RecentActivity, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	users, err := s.userRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	docs, err := s.documentRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &RecentActivity{RecentUsers: users, RecentDocuments: docs}, nil
}
