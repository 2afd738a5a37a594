package handler

import (
	"errors"
	"strconv"

	"docshare/internal/config"
	"docshare/internal/infrastructure/storage"
	"docshare/internal/repository"
	"docshare/internal/service"
	"docshare/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	store             *storage.LocalStore
	userService       *service.UserService
	documentService   *service.DocumentService
	downloadService   *service.DownloadService
	creditService     *service.CreditService
	commentService    *service.CommentService
	moderationService *service.ModerationService
	bookmarkService   *service.BookmarkService
	followService     *service.FollowService
	adminService      *service.AdminService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, store *storage.LocalStore, cfg *config.Config) *Handler {
	return &Handler{
		store:             store,
		userService:       service.NewUserService(db),
		documentService:   service.NewDocumentService(db, store),
		downloadService:   service.NewDownloadService(db, rdb, cfg),
		creditService:     service.NewCreditService(db),
		commentService:    service.NewCommentService(db, rdb),
		moderationService: service.NewModerationService(db, cfg),
		bookmarkService:   service.NewBookmarkService(db),
		followService:     service.NewFollowService(db),
		adminService:      service.NewAdminService(db),
	}
}

// handleError 业务错误到 HTTP 响应的统一映射
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrDocumentNotFound):
		response.NotFound(c, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, repository.ErrCommentNotFound):
		response.NotFound(c, response.CodeCommentNotFound, err.Error())
	case errors.Is(err, repository.ErrReportNotFound):
		response.NotFound(c, response.CodeReportNotFound, err.Error())
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrBookmarkNotFound),
		errors.Is(err, repository.ErrFollowNotFound):
		response.NotFound(c, response.CodeNotFound, err.Error())
	case errors.Is(err, repository.ErrAccountNotFound):
		response.NotFound(c, response.CodeAccountNotFound, err.Error())
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.Forbidden(c, response.CodeInsufficientCredits, err.Error())
	case errors.Is(err, service.ErrPrivateDocument),
		errors.Is(err, service.ErrNotDocumentOwner),
		errors.Is(err, service.ErrNotCommentOwner):
		response.Forbidden(c, response.CodeForbidden, err.Error())
	case errors.Is(err, repository.ErrOptimisticLock):
		response.Error(c, 409, response.CodeConflict, err.Error())
	case errors.Is(err, repository.ErrDocumentStatusInvalid),
		errors.Is(err, repository.ErrReportStatusInvalid):
		response.Error(c, 409, response.CodeStatusInvalid, err.Error())
	case errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrBookmarkExists),
		errors.Is(err, repository.ErrFollowExists):
		response.Error(c, 409, response.CodeAlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidAccessType),
		errors.Is(err, service.ErrInvalidCreditCost),
		errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrEmptyReportReason),
		errors.Is(err, service.ErrReportSelfDocument),
		errors.Is(err, service.ErrFollowSelf),
		errors.Is(err, service.ErrDocumentNotPublic):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" 参数错误")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// ============================================================
// 用户相关接口
// ============================================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	School   string `json:"school"`
	Major    string `json:"major"`
}

// Register 注册用户
// POST /api/v1/users/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.FullName, req.School, req.Major)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetProfile 查询用户资料
// GET /api/v1/users/:id
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
	School string `json:"school"`
	Major  string `json:"major"`
}

// UpdateProfile 更新个人资料
// PUT /api/v1/users/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), currentUserID(c),
		req.Avatar, req.Bio, req.School, req.Major)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, user)
}

// ============================================================
// 文档相关接口
// ============================================================

// UploadDocument 上传文档（multipart 表单）
// POST /api/v1/documents
func (h *Handler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "缺少文件")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	defer file.Close()

	creditCost, _ := strconv.ParseInt(c.PostForm("credit_cost"), 10, 64)
	req := &service.UploadRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		FileName:    fileHeader.Filename,
		FileType:    c.PostForm("file_type"),
		School:      c.PostForm("school"),
		Subject:     c.PostForm("subject"),
		Tags:        c.PostForm("tags"),
		AccessType:  c.PostForm("access_type"),
		CreditCost:  creditCost,
		Content:     file,
	}

	doc, err := h.documentService.Upload(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// ListDocuments 公开文档列表
// GET /api/v1/documents?search=&school=&subject=&tag=&sort_by=&order=&page=&page_size=
func (h *Handler) ListDocuments(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := &repository.DocumentListFilter{
		Search:  c.Query("search"),
		School:  c.Query("school"),
		Subject: c.Query("subject"),
		Tag:     c.Query("tag"),
		SortBy:  c.Query("sort_by"),
		Order:   c.Query("order"),
	}
	docs, total, err := h.documentService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      docs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetDocument 文档详情（浏览量 +1）
// GET /api/v1/documents/:id
func (h *Handler) GetDocument(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), docID, true)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// UpdateDocumentRequest 更新文档元信息请求
type UpdateDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	School      string `json:"school"`
	Subject     string `json:"subject"`
	Tags        string `json:"tags"`
}

// UpdateDocument 更新文档元信息
// PUT /api/v1/documents/:id
func (h *Handler) UpdateDocument(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documentService.UpdateMeta(c.Request.Context(), currentUserID(c), docID,
		req.Title, req.Description, req.School, req.Subject, req.Tags)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// DeleteDocument 删除文档
// DELETE /api/v1/documents/:id
func (h *Handler) DeleteDocument(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	err := h.documentService.Delete(c.Request.Context(), currentUserID(c), c.GetString("role"), docID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "文档已删除"})
}

// ListMyDocuments 我上传的文档
// GET /api/v1/documents/mine
func (h *Handler) ListMyDocuments(c *gin.Context) {
	page, pageSize := pagination(c)
	userID := currentUserID(c)
	docs, total, err := h.documentService.ListByUser(c.Request.Context(), userID, userID, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      docs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 下载相关接口
// ============================================================

// DownloadDocument 下载文档（付费文档会扣积分）
// POST /api/v1/documents/:id/download
//
// 不做幂等：每次调用都是一次独立的下载，付费文档每次都扣费
func (h *Handler) DownloadDocument(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.downloadService.Download(c.Request.Context(), currentUserID(c), docID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("X-Download-No", result.DownloadNo)
	c.FileAttachment(h.store.Path(result.FileHandle), result.Document.FileName)
}

// ListMyDownloads 我的下载历史
// GET /api/v1/downloads
func (h *Handler) ListMyDownloads(c *gin.Context) {
	page, pageSize := pagination(c)
	downloads, total, err := h.downloadService.ListUserDownloads(c.Request.Context(), currentUserID(c), page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      downloads,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 积分相关接口
// ============================================================

// GetBalance 查询余额
// GET /api/v1/credits/balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.creditService.GetBalance(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// ListTransactions 积分流水
// GET /api/v1/credits/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)
	transactions, total, err := h.creditService.ListTransactions(c.Request.Context(), currentUserID(c), page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      transactions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// PurchaseRequest 购买积分请求
type PurchaseRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// PurchaseCredits 购买积分
// POST /api/v1/credits/purchase
func (h *Handler) PurchaseCredits(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	balance, err := h.creditService.Purchase(c.Request.Context(), currentUserID(c), req.Amount)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// ============================================================
// 评论相关接口
// ============================================================

// AddCommentRequest 发表评论请求
type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
	Rating  *int   `json:"rating"`
}

// AddComment 发表评论
// POST /api/v1/documents/:id/comments
func (h *Handler) AddComment(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	comment, err := h.commentService.AddComment(c.Request.Context(), currentUserID(c), docID, req.Content, req.Rating)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, comment)
}

// ListComments 文档评论列表
// GET /api/v1/documents/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.commentService.ListComments(c.Request.Context(), docID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, comments)
}

// DeleteComment 删除评论
// DELETE /api/v1/comments/:id
func (h *Handler) DeleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	err := h.commentService.DeleteComment(c.Request.Context(), currentUserID(c), c.GetString("role"), commentID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "评论已删除"})
}

// ============================================================
// 举报 / 审核相关接口
// ============================================================

// CreateReportRequest 举报请求
type CreateReportRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// CreateReport 举报文档
// POST /api/v1/documents/:id/reports
func (h *Handler) CreateReport(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.moderationService.CreateReport(c.Request.Context(), currentUserID(c), docID, req.Reason, req.Description)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, report)
}

// ListReports 举报列表（审核员）
// GET /api/v1/reports?status=pending
func (h *Handler) ListReports(c *gin.Context) {
	page, pageSize := pagination(c)
	reports, total, err := h.moderationService.ListReports(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      reports,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetReport 举报详情（审核员）
// GET /api/v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.moderationService.GetReport(c.Request.Context(), reportID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, report)
}

// TransitionReportRequest 举报处理请求
type TransitionReportRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// TransitionReport 处理举报（审核员）
// POST /api/v1/reports/:id/transition
func (h *Handler) TransitionReport(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TransitionReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.moderationService.TransitionReport(c.Request.Context(), currentUserID(c), reportID, req.Status, req.Note)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, report)
}

// TransitionDocumentRequest 文档状态变更请求
type TransitionDocumentRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionDocument 文档审核/下架/恢复（审核员）
// POST /api/v1/admin/documents/:id/status
func (h *Handler) TransitionDocument(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TransitionDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.moderationService.TransitionDocument(c.Request.Context(), docID, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// ============================================================
// 收藏 / 关注相关接口
// ============================================================

// AddBookmark 收藏文档
// POST /api/v1/documents/:id/bookmark
func (h *Handler) AddBookmark(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bookmark, err := h.bookmarkService.Add(c.Request.Context(), currentUserID(c), docID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, bookmark)
}

// RemoveBookmark 取消收藏
// DELETE /api/v1/documents/:id/bookmark
func (h *Handler) RemoveBookmark(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookmarkService.Remove(c.Request.Context(), currentUserID(c), docID); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "已取消收藏"})
}

// ListBookmarks 我的收藏
// GET /api/v1/bookmarks
func (h *Handler) ListBookmarks(c *gin.Context) {
	docs, err := h.bookmarkService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, docs)
}

// FollowUser 关注用户
// POST /api/v1/users/:id/follow
func (h *Handler) FollowUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.followService.Follow(c.Request.Context(), currentUserID(c), userID); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "关注成功"})
}

// UnfollowUser 取消关注
// DELETE /api/v1/users/:id/follow
func (h *Handler) UnfollowUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.followService.Unfollow(c.Request.Context(), currentUserID(c), userID); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "已取消关注"})
}

// ListFollowers 粉丝列表
// GET /api/v1/users/:id/followers
func (h *Handler) ListFollowers(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.followService.ListFollowers(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, users)
}

// ListFollowing 关注列表
// GET /api/v1/users/:id/following
func (h *Handler) ListFollowing(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.followService.ListFollowing(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, users)
}

// ============================================================
// 管理端接口
// ============================================================

// GetDashboard 平台核心指标
// GET /api/v1/admin/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, stats)
}

// GetRecentActivity 最近动态
// GET /api/v1/admin/activity?limit=10
func (h *Handler) GetRecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	activity, err := h.adminService.GetRecentActivity(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, activity)
}

// ListUsers 用户列表（管理员）
// GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// UpdateUserRoleRequest 角色变更请求
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateUserRole 调整用户角色（管理员）
// PUT /api/v1/admin/users/:id/role
func (h *Handler) UpdateUserRole(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	if err := h.userService.UpdateRole(c.Request.Context(), userID, req.Role); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "角色已更新"})
}

// ListAllDocuments 全量文档列表（管理端，可按状态过滤）
// GET /api/v1/admin/documents?status=pending
func (h *Handler) ListAllDocuments(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := &repository.DocumentListFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
	}
	docs, total, err := h.documentService.ListForAdmin(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      docs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
