package service

import (
	"context"
	"strings"
	"testing"

	"docshare/internal/model"
	"docshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func documentRating(t *testing.T, repo *repository.DocumentRepository, docID int64) (float64, int64) {
	t.Helper()
	doc, err := repo.GetByID(context.Background(), docID)
	require.NoError(t, err)
	return doc.AverageRating, doc.RatingCount
}

func TestRatingAggregateOnAdd(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db, newTestRedis(t))
	docRepo := repository.NewDocumentRepository(db)
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	alice := registerUser(t, db, "alice@example.com")
	bob := registerUser(t, db, "bob@example.com")
	carol := registerUser(t, db, "carol@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	_, err := svc.AddComment(ctx, alice.ID, doc.ID, "great notes", intPtr(5))
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, bob.ID, doc.ID, "decent", intPtr(3))
	require.NoError(t, err)

	avg, count := documentRating(t, docRepo, doc.ID)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, int64(2), count)

	_, err = svc.AddComment(ctx, carol.ID, doc.ID, "good", intPtr(4))
	require.NoError(t, err)

	avg, count = documentRating(t, docRepo, doc.ID)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, int64(3), count)
}

func TestRatingAggregateOnDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db, newTestRedis(t))
	docRepo := repository.NewDocumentRepository(db)
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	alice := registerUser(t, db, "alice@example.com")
	bob := registerUser(t, db, "bob@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	c1, err := svc.AddComment(ctx, alice.ID, doc.ID, "great", intPtr(5))
	require.NoError(t, err)
	c2, err := svc.AddComment(ctx, bob.ID, doc.ID, "fine", intPtr(2))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteComment(ctx, alice.ID, model.RoleUser, c1.ID))

	avg, count := documentRating(t, docRepo, doc.ID)
	assert.Equal(t, 2.0, avg)
	assert.Equal(t, int64(1), count)

	// 最后一条评分删除后聚合归零
	require.NoError(t, svc.DeleteComment(ctx, bob.ID, model.RoleUser, c2.ID))

	avg, count = documentRating(t, docRepo, doc.ID)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, int64(0), count)
}

func TestPlainCommentDoesNotAffectRating(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db, newTestRedis(t))
	docRepo := repository.NewDocumentRepository(db)
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	alice := registerUser(t, db, "alice@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	_, err := svc.AddComment(ctx, alice.ID, doc.ID, "thanks for sharing", nil)
	require.NoError(t, err)

	avg, count := documentRating(t, docRepo, doc.ID)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, int64(0), count)
}

func TestAddCommentValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db, newTestRedis(t))
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	alice := registerUser(t, db, "alice@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	_, err := svc.AddComment(ctx, alice.ID, doc.ID, "", intPtr(3))
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = svc.AddComment(ctx, alice.ID, doc.ID, "bad rating", intPtr(6))
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.AddComment(ctx, alice.ID, doc.ID, "bad rating", intPtr(0))
	assert.ErrorIs(t, err, ErrInvalidRating)

	// 未审核通过的文档不能评论
	pending, err := NewDocumentService(db, store).Upload(ctx, owner.ID, &UploadRequest{
		Title:    "Draft",
		FileName: "draft.pdf",
		Content:  strings.NewReader("draft"),
	})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, alice.ID, pending.ID, "nice", nil)
	assert.ErrorIs(t, err, ErrDocumentNotPublic)
}

func TestDeleteCommentPermission(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommentService(db, newTestRedis(t))
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	alice := registerUser(t, db, "alice@example.com")
	mallory := registerUser(t, db, "mallory@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	comment, err := svc.AddComment(ctx, alice.ID, doc.ID, "mine", nil)
	require.NoError(t, err)

	// 其他普通用户不能删
	err = svc.DeleteComment(ctx, mallory.ID, model.RoleUser, comment.ID)
	assert.ErrorIs(t, err, ErrNotCommentOwner)

	// 审核员可以删
	require.NoError(t, svc.DeleteComment(ctx, mallory.ID, model.RoleModerator, comment.ID))

	comments, err := svc.ListComments(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
