package service

import (
	"context"
	"testing"

	"docshare/internal/model"
	"docshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookmarkService(db)
	store := newTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, db, "owner@example.com")
	alice := registerUser(t, db, "alice@example.com")
	doc := uploadDocument(t, db, store, owner.ID, model.AccessTypePublic, 0)

	_, err := svc.Add(ctx, alice.ID, doc.ID)
	require.NoError(t, err)

	// 重复收藏被拒
	_, err = svc.Add(ctx, alice.ID, doc.ID)
	assert.ErrorIs(t, err, repository.ErrBookmarkExists)

	docs, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)

	require.NoError(t, svc.Remove(ctx, alice.ID, doc.ID))
	assert.ErrorIs(t, svc.Remove(ctx, alice.ID, doc.ID), repository.ErrBookmarkNotFound)
}

func TestFollowLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)
	ctx := context.Background()

	alice := registerUser(t, db, "alice@example.com")
	bob := registerUser(t, db, "bob@example.com")

	assert.ErrorIs(t, svc.Follow(ctx, alice.ID, alice.ID), ErrFollowSelf)

	require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, svc.Follow(ctx, alice.ID, bob.ID), repository.ErrFollowExists)

	followers, err := svc.ListFollowers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].ID)

	following, err := svc.ListFollowing(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bob.ID, following[0].ID)

	require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, svc.Unfollow(ctx, alice.ID, bob.ID), repository.ErrFollowNotFound)
}
