package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLockMutualExclusion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	l1 := NewDownloadLock(client, 1, "holder-a")
	l2 := NewDownloadLock(client, 1, "holder-b")

	ok, err := l1.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// 同一用户的第二把锁拿不到
	ok, err = l2.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 不同用户互不影响
	other := NewDownloadLock(client, 2, "holder-c")
	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// 释放后可以再拿
	require.NoError(t, l1.Unlock(ctx))
	ok, err = l2.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockOnlyReleasesOwnLock(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	l1 := NewRatingLock(client, 9, "holder-a")
	l2 := NewRatingLock(client, 9, "holder-b")

	ok, err := l1.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// 别人的 Unlock 不会删掉我持有的锁
	require.NoError(t, l2.Unlock(ctx))

	ok, err = l2.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockRetriesThenFails(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	l1 := NewDownloadLock(client, 3, "holder-a")
	ok, err := l1.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	l2 := NewDownloadLock(client, 3, "holder-b")
	err = l2.Lock(ctx, time.Millisecond, 3)
	assert.ErrorIs(t, err, ErrLockFailed)
}
