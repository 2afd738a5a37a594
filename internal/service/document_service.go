package service

import (
	"context"
	"errors"
	"io"
	"log"

	"docshare/internal/infrastructure/storage"
	"docshare/internal/model"
	"docshare/internal/repository"

	"gorm.io/gorm"
)

// ============================================================================
// 文档服务
//
// 上传：文件先落存储拿句柄，再在一个事务里建文档记录 + 发上传奖励流水，
// 事务失败时删掉刚写的文件做补偿。新文档一律 pending，等审核
//
// 删除：评论/收藏/举报跟着删，流水上的文档引用置空（流水金额永不回滚），
// 下载记录是审计数据，保留
// ============================================================================

var (
	ErrNotDocumentOwner  = errors.New("无权操作该文档")
	ErrInvalidAccessType = errors.New("访问类型不合法")
	ErrInvalidCreditCost = errors.New("积分定价不合法")
	ErrEmptyTitle        = errors.New("文档标题不能为空")
)

type UploadRequest struct {
	Title       string
	Description string
	FileName    string
	FileType    string
	School      string
	Subject     string
	Tags        string
	AccessType  string
	CreditCost  int64
	Content     io.Reader
}

type DocumentService struct {
	db           *gorm.DB
	store        *storage.LocalStore
	creditSvc    *CreditService
	documentRepo *repository.DocumentRepository
	commentRepo  *repository.CommentRepository
	bookmarkRepo *repository.BookmarkRepository
	reportRepo   *repository.ReportRepository
	creditRepo   *repository.CreditRepository
}

func NewDocumentService(db *gorm.DB, store *storage.LocalStore) *DocumentService {
	return &DocumentService{
		db:           db,
		store:        store,
		creditSvc:    NewCreditService(db),
		documentRepo: repository.NewDocumentRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
		bookmarkRepo: repository.NewBookmarkRepository(db),
		reportRepo:   repository.NewReportRepository(db),
		creditRepo:   repository.NewCreditRepository(db),
	}
}

// Upload 上传文档并发放上传奖励
func (s *DocumentService) Upload(ctx context.Context, userID int64, req *UploadRequest) (*model.Document, error) {
	if req.Title == "" {
		return nil, ErrEmptyTitle
	}
	accessType := req.AccessType
	if accessType == "" {
		accessType = model.AccessTypePublic
	}
	if !model.IsValidAccessType(accessType) {
		return nil, ErrInvalidAccessType
	}
	creditCost := req.CreditCost
	if accessType != model.AccessTypePremium {
		creditCost = 0
	} else if creditCost <= 0 {
		return nil, ErrInvalidCreditCost
	}

	handle, size, err := s.store.Save(req.Content)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		FileName:    req.FileName,
		FileHandle:  handle,
		FileSize:    size,
		FileType:    req.FileType,
		School:      req.School,
		Subject:     req.Subject,
		Tags:        req.Tags,
		AccessType:  accessType,
		CreditCost:  creditCost,
		Status:      model.DocumentStatusPending,
	}

	err = withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.documentRepo.Create(ctx, tx, doc); err != nil {
				return err
			}
			_, err := s.creditSvc.ApplyEntry(ctx, tx, userID, model.UploadRewardCredits,
				model.CreditKindEarn, ReasonDocumentUpload, &doc.ID)
			return err
		})
	})
	if err != nil {
		// 补偿：事务回滚后刚写入的文件成了孤儿，删掉
		if delErr := s.store.Delete(handle); delErr != nil {
			log.Printf("补偿删除文件失败: handle=%s, err=%v", handle, delErr)
		}
		return nil, err
	}

	log.Printf("文档上传成功: documentID=%d, userID=%d, accessType=%s", doc.ID, userID, accessType)
	return doc, nil
}

// Get 查询文档详情
// withView 为 true 时浏览量 +1（详情页访问计数，查不到不计）
func (s *DocumentService) Get(ctx context.Context, documentID int64, withView bool) (*model.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if withView {
		if err := s.documentRepo.IncrementViewCount(ctx, documentID); err != nil {
			log.Printf("更新浏览量失败: documentID=%d, err=%v", documentID, err)
		} else {
			doc.ViewCount++
		}
	}
	return doc, nil
}

// List 公开文档列表，只返回审核通过的
func (s *DocumentService) List(ctx context.Context, filter *repository.DocumentListFilter, page, pageSize int) ([]*model.Document, int64, error) {
	filter.Status = model.DocumentStatusApproved
	return s.documentRepo.List(ctx, filter, page, pageSize)
}

// ListByUser 某用户上传的文档（自己看自己时不过滤状态）
func (s *DocumentService) ListByUser(ctx context.Context, viewerID, ownerID int64, page, pageSize int) ([]*model.Document, int64, error) {
	filter := &repository.DocumentListFilter{UserID: ownerID}
	if viewerID != ownerID {
		filter.Status = model.DocumentStatusApproved
	}
	return s.documentRepo.List(ctx, filter, page, pageSize)
}

// ListForAdmin 管理端列表，可按任意状态过滤
func (s *DocumentService) ListForAdmin(ctx context.Context, filter *repository.DocumentListFilter, page, pageSize int) ([]*model.Document, int64, error) {
	return s.documentRepo.List(ctx, filter, page, pageSize)
}

// Delete 删除文档（上传者本人或管理端）
func (s *DocumentService) Delete(ctx context.Context, userID int64, role string, documentID int64) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != userID && role != model.RoleAdmin {
		return ErrNotDocumentOwner
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.commentRepo.DeleteByDocumentID(ctx, tx, documentID); err != nil {
			return err
		}
		if err := s.bookmarkRepo.DeleteByDocumentID(ctx, tx, documentID); err != nil {
			return err
		}
		if err := s.reportRepo.DeleteByDocumentID(ctx, tx, documentID); err != nil {
			return err
		}
		// 流水和下载记录保留：流水只清引用，下载记录原样不动
		if err := s.creditRepo.ClearDocumentRef(ctx, tx, documentID); err != nil {
			return err
		}
		return s.documentRepo.Delete(ctx, tx, documentID)
	})
	if err != nil {
		return err
	}

	// 文件删除放在事务提交后，失败只记日志，留给离线清理
	if err := s.store.Delete(doc.FileHandle); err != nil {
		log.Printf("删除文件失败: handle=%s, err=%v", doc.FileHandle, err)
	}

	log.Printf("文档已删除: documentID=%d, operator=%d", documentID, userID)
	return nil
}

// UpdateMeta 更新文档元信息（标题、描述、分类），不改文件和状态
func (s *DocumentService) UpdateMeta(ctx context.Context, userID, documentID int64, title, description, school, subject, tags string) (*model.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, ErrNotDocumentOwner
	}

	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if description != "" {
		updates["description"] = description
	}
	if school != "" {
		updates["school"] = school
	}
	if subject != "" {
		updates["subject"] = subject
	}
	if tags != "" {
		updates["tags"] = tags
	}
	if len(updates) == 0 {
		return doc, nil
	}

	err = s.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", documentID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return s.documentRepo.GetByID(ctx, documentID)
}
